package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"arche/internal/config"
	"arche/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema does for a configuration: the embedded SQL
// migrations, gorm AutoMigrate, or both.
type SchemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// SchemaStatus reports the plan and migration state without changing
// anything.
type SchemaStatus struct {
	SchemaPlan
	Environment     string
	AppliedVersions []int
	Pending         []Migration
	Drifted         []int
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves the mode for cfg. AutoMigrate never runs in
// production-like environments: hybrid drops it there and auto is refused.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return SchemaPlan{Mode: mode, RunSQL: true}, nil
	case SchemaModeAuto:
		if prodLike {
			return SchemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return SchemaPlan{Mode: mode, RunAuto: true}, nil
	case SchemaModeHybrid:
		return SchemaPlan{Mode: mode, RunSQL: true, RunAuto: !prodLike}, nil
	}
	return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
}

// AutoMigrate creates or updates every persistent table from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to the configured mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations are part
// of it, which ones are applied, pending or modified since.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}
	if !plan.RunSQL {
		return status, nil
	}

	logs, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = versionsOf(logs)
	status.Pending = pendingMigrations(status.AppliedVersions, migrations)
	status.Drifted = driftedMigrations(logs, migrations)
	return status, nil
}
