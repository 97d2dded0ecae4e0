package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type storedSession struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires"`
}

func sessionPath() (string, error) {
	if p := os.Getenv("ARCHE_SESSION_FILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".arche", "session.json"), nil
}

// loadSession returns the stored session, or an empty one when none exists or
// it has expired.
func loadSession() (storedSession, error) {
	path, err := sessionPath()
	if err != nil {
		return storedSession{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storedSession{}, nil
		}
		return storedSession{}, err
	}
	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return storedSession{}, err
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return storedSession{}, nil
	}
	return s, nil
}

func saveSession(s storedSession) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func clearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
