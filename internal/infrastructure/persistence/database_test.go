package persistence

import (
	"path/filepath"
	"testing"

	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingPlugin struct {
	initialized int
}

func (p *countingPlugin) Name() string { return "counting" }

func (p *countingPlugin) Initialize(*gorm.DB) error {
	p.initialized++
	return nil
}

func TestNewDatabase_SQLite(t *testing.T) {
	plugin := &countingPlugin{}
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "sync.db"),
	}

	db, err := NewDatabase(cfg, WithPlugin(plugin), WithPlugin(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, 1, plugin.initialized)
	require.NoError(t, db.AutoMigrate())
	require.NoError(t, db.Ping())

	for _, table := range []string{"catalog_items", "catalog_dimensions", "secondary_codes", "partners", "sync_runs", "sales_order_items"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
