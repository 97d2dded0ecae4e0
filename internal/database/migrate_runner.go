package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"arche/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records one applied migration and the checksum of the script
// that ran.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

const ensureMigrationLogTableSQL = `
CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL DEFAULT '',
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// appliedMigrations returns the log in version order. A missing log table
// means nothing was applied yet.
func appliedMigrations(ctx context.Context, db *gorm.DB) ([]MigrationLog, error) {
	var logs []MigrationLog
	if err := db.WithContext(ctx).Order("version").Find(&logs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migration log: %w", err)
	}
	return logs, nil
}

func versionsOf(logs []MigrationLog) []int {
	out := make([]int, len(logs))
	for i, l := range logs {
		out[i] = l.Version
	}
	return out
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// driftedMigrations lists applied versions whose script changed since.
// Logs without a checksum are not compared.
func driftedMigrations(logs []MigrationLog, registered []Migration) []int {
	byVersion := make(map[int]Migration, len(registered))
	for _, m := range registered {
		byVersion[m.Version] = m
	}
	var drifted []int
	for _, l := range logs {
		m, ok := byVersion[l.Version]
		if ok && l.Checksum != "" && l.Checksum != m.Checksum {
			drifted = append(drifted, l.Version)
		}
	}
	return drifted
}

func formatVersions(versions []int) string {
	sorted := append([]int(nil), versions...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = fmt.Sprintf("%06d", v)
	}
	return strings.Join(parts, ", ")
}

// verifyLog refuses to migrate a database that ran versions this binary does
// not know, or whose applied scripts were edited afterwards.
func verifyLog(logs []MigrationLog, registered []Migration) error {
	known := make(map[int]bool, len(registered))
	for _, m := range registered {
		known[m.Version] = true
	}
	var unknown []int
	for _, l := range logs {
		if !known[l.Version] {
			unknown = append(unknown, l.Version)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("migration_logs contains versions unknown to this build: %s", formatVersions(unknown))
	}
	if drifted := driftedMigrations(logs, registered); len(drifted) > 0 {
		return fmt.Errorf("applied migrations were modified afterwards: %s", formatVersions(drifted))
	}
	return nil
}

// RunMigrations applies every pending embedded migration, each in its own
// transaction together with its log row.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if loadErr != nil {
		return fmt.Errorf("embedded migrations: %w", loadErr)
	}
	if err := db.WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return fmt.Errorf("ensure migration log table: %w", err)
	}

	logs, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	if err := verifyLog(logs, migrations); err != nil {
		return err
	}

	for _, m := range pendingMigrations(versionsOf(logs), migrations) {
		start := time.Now()
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.Up).Error; err != nil {
				return fmt.Errorf("apply %s: %w", m, err)
			}
			return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name, Checksum: m.Checksum}).Error
		})
		if err != nil {
			return err
		}
		middleware.Logger.Info("Migration applied",
			slog.String("migration", m.String()), slog.Duration("took", time.Since(start)))
	}
	return nil
}

// RollbackMigration runs the down script of version, which must be the most
// recently applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	logs, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	if len(logs) == 0 || logs[len(logs)-1].Version != version {
		applied := "none"
		if len(logs) > 0 {
			applied = fmt.Sprintf("%06d", logs[len(logs)-1].Version)
		}
		return fmt.Errorf("migration %06d is not the latest applied (latest: %s)", version, applied)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.Down).Error; err != nil {
			return fmt.Errorf("roll back %s: %w", m, err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("Migration rolled back", slog.String("migration", m.String()))
	return nil
}
