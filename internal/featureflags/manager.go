// Package featureflags gates optional parts of the API (the live activity
// feed, image uploads) behind flags read from FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags known to the application.
const (
	LiveFeed     = "live_feed"
	ImageUploads = "image_uploads"
)

// Known lists the flags routes are gated on. They always appear in a
// snapshot, off unless configured.
var Known = []string{LiveFeed, ImageUploads}

// rule is one parsed flag value. percent is -1 for plain on/off values.
type rule struct {
	raw     string
	on      bool
	percent int
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, on: true, percent: -1}, true
	case "off", "false", "0":
		return rule{raw: value, percent: -1}, true
	}
	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct < 0 {
		return rule{}, false
	}
	if pct > 100 {
		pct = 100
	}
	return rule{raw: value, percent: pct}, true
}

// Manager evaluates flags such as "live_feed=on,image_uploads=25%".
type Manager struct {
	rules   map[string]rule
	ignored []string
}

// NewManager parses a comma-separated name=value list. Malformed entries are
// kept aside and reported by Ignored.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		name, value = normalize(name), normalize(value)
		if !found || name == "" || value == "" {
			m.ignored = append(m.ignored, pair)
			continue
		}
		r, ok := parseRule(value)
		if !ok {
			m.ignored = append(m.ignored, pair)
			continue
		}
		m.rules[name] = r
	}

	return m
}

// Enabled reports whether name is on for userID. Percentage rollouts bucket
// users deterministically and never include anonymous viewers below 100%.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	r, ok := m.rules[name]
	if !ok {
		return false
	}
	switch {
	case r.percent < 0:
		return r.on
	case r.percent == 0:
		return false
	case r.percent >= 100:
		return true
	case userID == "":
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot evaluates every configured and known flag for userID.
func (m *Manager) Snapshot(userID string) map[string]bool {
	out := make(map[string]bool, len(m.rules)+len(Known))
	for _, name := range Known {
		out[name] = m.Enabled(name, userID)
	}
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Ignored returns the entries NewManager could not parse.
func (m *Manager) Ignored() []string {
	return m.ignored
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + userID))
	return int(h.Sum32() % 100)
}
