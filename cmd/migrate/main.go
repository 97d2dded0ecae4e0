// Command migrate runs schema operations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"arche/internal/config"
	"arche/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status|down> [version]\n  down without a version rolls back the latest applied migration")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		printStatus(status)
	case "down":
		version, err := targetVersion(ctx, db, cfg)
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %06d", version)
	default:
		return usage()
	}
	return nil
}

// targetVersion is the version given after "down", or the latest applied one.
func targetVersion(ctx context.Context, db *gorm.DB, cfg *config.Config) (int, error) {
	if flag.NArg() >= 2 {
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		return version, nil
	}
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return 0, err
	}
	if len(status.AppliedVersions) == 0 {
		return 0, fmt.Errorf("no applied migration to roll back")
	}
	return status.AppliedVersions[len(status.AppliedVersions)-1], nil
}

func printStatus(s *database.SchemaStatus) {
	log.Printf("mode=%s env=%s sql=%t automigrate=%t", s.Mode, s.Environment, s.RunSQL, s.RunAuto)
	if !s.RunSQL {
		return
	}
	log.Printf("applied: %d, pending: %d", len(s.AppliedVersions), len(s.Pending))
	for _, m := range s.Pending {
		log.Printf("  pending  %s", m)
	}
	for _, v := range s.Drifted {
		log.Printf("  modified %06d (script changed after it was applied)", v)
	}
}
