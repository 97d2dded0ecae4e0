package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one versioned pair of SQL scripts.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	migrations []Migration
	loadErr    error
)

func init() {
	migrations, loadErr = LoadMigrations(migrationFS, "migrations")
}

func checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from dir in
// fsys, sorted by version. Every up script needs its down script.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	seen := make(map[int]string, len(ups))
	out := make([]Migration, 0, len(ups))
	for _, upPath := range ups {
		base := strings.TrimSuffix(path.Base(upPath), ".up.sql")
		rawVersion, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %q: expected NNNNNN_name.up.sql", base)
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %q: invalid version %q", base, rawVersion)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by both %s and %s", version, prev, base)
		}
		seen[version] = base

		up, err := fs.ReadFile(fsys, upPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", upPath, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", base, err)
		}

		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Up:       string(up),
			Down:     string(down),
			Checksum: checksum(string(up)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the embedded migration with version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}
