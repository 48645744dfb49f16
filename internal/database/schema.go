package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"askaway/internal/config"
	"askaway/internal/middleware"

	"gorm.io/gorm"
)

// Values accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// Environments where AutoMigrate must never touch the schema.
var protectedEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

// SchemaPlan says which schema tools run for a configuration.
type SchemaPlan struct {
	Mode        string
	Environment string
	Driver      string
	SQL         bool
	Auto        bool
}

// PlanSchema resolves DB_SCHEMA_MODE against the driver and environment.
// The SQL migrations target PostgreSQL, so SQLite always uses AutoMigrate.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode:        strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Environment: cfg.Env,
		Driver:      cfg.DBDriver,
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	protected := protectedEnvs[strings.ToLower(strings.TrimSpace(cfg.Env))]

	if cfg.DBDriver == config.DriverSQLite {
		plan.Auto = true
		return plan, nil
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if protected {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q; use sql or hybrid", cfg.Env)
		}
		plan.Auto = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.Auto = !protected
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the users, questions, answers, stars and view tables up
// to date using the tools PlanSchema picks.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.Auto {
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", plan.Mode), slog.String("driver", plan.Driver), slog.String("env", plan.Environment))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus is a plan together with the ledger state of the SQL migrations.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending []Migration
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	migrator := NewMigrator(db, Migrations())
	if status.Applied, err = migrator.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = migrator.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
