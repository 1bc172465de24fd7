package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, 0.10, cfg.Engine.PrescribedRate)
	assert.Equal(t, 365, cfg.Engine.DataMaxAgeDays)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	yml := "server:\n  addr: \":9000\"\nengine:\n  prescribed_rate: 0.08\n  data_max_age_days: 90\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("TAX_BORROWING_THRESHOLD", "250000")
	t.Setenv("TAX_API_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 0.08, cfg.Engine.PrescribedRate)
	assert.Equal(t, 90, cfg.Engine.DataMaxAgeDays)
	assert.Equal(t, 250_000.0, cfg.Engine.BorrowingThreshold)
	assert.Equal(t, ".cache/cantax.db", cfg.Storage.SQLitePath)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("TAX_PRESCRIBED_RATE", "ten percent")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = StoragePostgres
	assert.Error(t, cfg.Validate())

	cfg.Storage.DatabaseURL = "postgres://localhost/cantax"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Type = "mysql"
	assert.Error(t, cfg.Validate())
}
