package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"askaway/internal/middleware"

	"gorm.io/gorm"
)

// Migration is one numbered pair of PostgreSQL scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var shipped = mustLoadShipped()

func mustLoadShipped() []Migration {
	dir, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	ms, err := LoadMigrations(dir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return ms
}

// Migrations returns the migrations compiled into the binary, oldest first.
func Migrations() []Migration {
	return shipped
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from the root of
// fsys. A script without its partner or a repeated version is an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(ups))
	out := make([]Migration, 0, len(ups))
	for _, file := range ups {
		base := strings.TrimSuffix(file, ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		version, convErr := strconv.Atoi(prefix)
		if !ok || name == "" || convErr != nil {
			return nil, fmt.Errorf("migration %s: want NNNNNN_name.up.sql", file)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, other, file)
		}
		seen[version] = file

		up, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, base+".down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", base, err)
		}
		out = append(out, Migration{Version: version, Name: name, Up: string(up), Down: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// appliedMigration is a row of the schema_migrations ledger.
type appliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (appliedMigration) TableName() string { return "schema_migrations" }

// Migrator applies a migration set and records each version it runs. Every
// script runs in the same transaction as its ledger row.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set}
}

// Applied lists recorded versions, oldest first. A missing ledger means none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&appliedMigration{}) {
		return nil, nil
	}
	var versions []int
	if err := db.Model(&appliedMigration{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations not yet applied. It fails when the ledger
// holds a version this binary does not know, which means the database is
// ahead of the code.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, mig := range m.set {
		if done[mig.Version] {
			delete(done, mig.Version)
			continue
		}
		pending = append(pending, mig)
	}

	if len(done) > 0 {
		unknown := make([]int, 0, len(done))
		for v := range done {
			unknown = append(unknown, v)
		}
		sort.Ints(unknown)
		return nil, fmt.Errorf("schema_migrations has versions this build does not ship: %v", unknown)
	}
	return pending, nil
}

// Up applies every pending migration and reports how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&appliedMigration{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return i, fmt.Errorf("migration %s: %w", mig, err)
		}
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.set {
		if m.set[i].Version == version {
			target = &m.set[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !containsVersion(applied, version) {
		return fmt.Errorf("migration %s has not been applied", target)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", target.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.Down).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", target, err)
		}
		return tx.Delete(&appliedMigration{}, "version = ?", version).Error
	})
}

func containsVersion(versions []int, version int) bool {
	for _, v := range versions {
		if v == version {
			return true
		}
	}
	return false
}

// ErrSchemaIncomplete reports a domain table missing after migrations ran.
var ErrSchemaIncomplete = errors.New("schema incomplete")

// RunMigrations applies the shipped migrations, then checks that every
// table behind PersistentModels exists.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	n, err := NewMigrator(db, Migrations()).Up(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		middleware.Logger.Info("SQL migrations applied", slog.Int("count", n))
	}
	return requireTables(db.WithContext(ctx))
}

func requireTables(db *gorm.DB) error {
	var missing []string
	for _, model := range PersistentModels() {
		if db.Migrator().HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return err
		}
		missing = append(missing, stmt.Schema.Table)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// RollbackMigration reverts one shipped migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, Migrations()).Down(ctx, version)
}
