package database

import (
	"context"
	"testing"
	"testing/fstest"

	"askaway/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		sql     bool
		auto    bool
		wantErr bool
	}{
		{"hybrid development", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "hybrid", Env: "development"}, true, true, false},
		{"hybrid production", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "hybrid", Env: "production"}, true, false, false},
		{"empty mode defaults to hybrid", config.Config{DBDriver: config.DriverPostgres, Env: "test"}, true, true, false},
		{"sql only", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: " SQL ", Env: "development"}, true, false, false},
		{"auto in staging refused", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "auto", Env: "Staging"}, false, false, true},
		{"sqlite always auto", config.Config{DBDriver: config.DriverSQLite, DBSchemaMode: "sql", Env: "production"}, false, true, false},
		{"unknown mode", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "bogus"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sql, plan.SQL)
			assert.Equal(t, tt.auto, plan.Auto)
			assert.Equal(t, tt.cfg.DBDriver, plan.Driver)
		})
	}
}

func TestShippedMigrations(t *testing.T) {
	ms := Migrations()
	require.GreaterOrEqual(t, len(ms), 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "init_schema", ms[0].Name)
	assert.Contains(t, ms[0].Up, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, ms[0].Down, "DROP TABLE IF EXISTS users")
	assert.Equal(t, "000001_init_schema", ms[0].String())
	assert.Equal(t, "search_indexes", ms[1].Name)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"missing down": {
			"000001_tags.up.sql": {Data: []byte("CREATE TABLE tags (name TEXT)")},
		},
		"bad name": {
			"first.up.sql":   {Data: []byte("SELECT 1")},
			"first.down.sql": {Data: []byte("SELECT 1")},
		},
		"duplicate version": {
			"000001_a.up.sql":   {Data: []byte("SELECT 1")},
			"000001_a.down.sql": {Data: []byte("SELECT 1")},
			"1_b.up.sql":        {Data: []byte("SELECT 1")},
			"1_b.down.sql":      {Data: []byte("SELECT 1")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMigrations(fsys)
			assert.Error(t, err)
		})
	}
}

func newMigratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrator_UpDown(t *testing.T) {
	ctx := context.Background()
	set, err := LoadMigrations(fstest.MapFS{
		"000001_tags.up.sql":       {Data: []byte("CREATE TABLE tags (name TEXT PRIMARY KEY)")},
		"000001_tags.down.sql":     {Data: []byte("DROP TABLE tags")},
		"000002_seed_go.up.sql":    {Data: []byte("INSERT INTO tags (name) VALUES ('go')")},
		"000002_seed_go.down.sql":  {Data: []byte("DELETE FROM tags WHERE name = 'go'")},
		"000003_broken.up.sql":     {Data: []byte("INSERT INTO nowhere VALUES (1)")},
		"000003_broken.down.sql":   {Data: []byte("SELECT 1")},
		"README.md":                {Data: []byte("ignored")},
		"000004_never_reached.sql": {Data: []byte("ignored")},
	})
	require.NoError(t, err)
	require.Len(t, set, 3)

	db := newMigratorDB(t)
	m := NewMigrator(db, set[:2])

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "no ledger yet")

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var tags int64
	require.NoError(t, db.Table("tags").Count(&tags).Error)
	assert.Equal(t, int64(1), tags)

	require.NoError(t, m.Down(ctx, 2))
	require.NoError(t, db.Table("tags").Count(&tags).Error)
	assert.Zero(t, tags)
	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Error(t, m.Down(ctx, 2), "already rolled back")
	assert.Error(t, m.Down(ctx, 9), "unknown version")

	t.Run("failed script leaves no ledger row", func(t *testing.T) {
		full := NewMigrator(db, set)
		n, err := full.Up(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, n, "000002 ran before 000003 failed")
		applied, err := full.Applied(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, applied)
	})

	t.Run("ledger ahead of the code", func(t *testing.T) {
		_, err := NewMigrator(db, set[:1]).Pending(ctx)
		assert.ErrorContains(t, err, "[2]")
	})
}

func TestRunMigrations_RequiresDomainTables(t *testing.T) {
	db := newMigratorDB(t)
	err := requireTables(db)
	require.ErrorIs(t, err, ErrSchemaIncomplete)
	assert.Contains(t, err.Error(), "questions")

	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	assert.NoError(t, requireTables(db))
}
