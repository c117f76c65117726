package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "data/ledger.db"
	cfg.Suggestions.AutoApply = 0.95
	cfg.Categories.Defaults = []string{"Uncategorized", "Food"}
	cfg.Import.Format = "standard"
	cfg.Git.AutoCommit = true

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", got.Store.Driver)
	assert.Equal(t, "data/ledger.db", got.Store.Path)
	assert.InDelta(t, 0.70, got.Suggestions.DominantShare, 0.001)
	assert.InDelta(t, 0.95, got.Suggestions.AutoApply, 0.001)
	assert.Equal(t, []string{"Uncategorized", "Food"}, got.Categories.Defaults)
	assert.Equal(t, "info", got.Log.Level)
	assert.Equal(t, "import", got.Import.Dir)
	assert.Equal(t, "standard", got.Import.Format)
	assert.True(t, got.Git.AutoCommit)
	assert.Equal(t, "cartola", got.Git.AuthorName)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "cartola.db", cfg.Store.Path)
	assert.InDelta(t, 0.70, cfg.Suggestions.DominantShare, 0.001)
	assert.InDelta(t, 0.90, cfg.Suggestions.AutoApply, 0.001)
	assert.Contains(t, cfg.Categories.Defaults, "Uncategorized")
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingKeysUseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, "sqlite", got.Store.Driver)
	assert.Equal(t, "cartola.db", got.Store.Path)
	assert.InDelta(t, 0.70, got.Suggestions.DominantShare, 0.001)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	t.Setenv("CARTOLA_LOG_LEVEL", "warn")
	t.Setenv("DATABASE_URL", "postgres://cartola@localhost/cartola")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", got.Log.Level)
	assert.Equal(t, "postgres", got.Store.Driver)
	assert.Equal(t, "postgres://cartola@localhost/cartola", got.Store.DSN)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "mysql"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownDriver)

	cfg = Default()
	cfg.Store.Driver = "postgres"
	assert.Error(t, cfg.Validate(), "postgres needs a dsn")

	cfg = Default()
	cfg.Suggestions.DominantShare = 1.5
	assert.Error(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "driver: sqlite")
	assert.Contains(t, contents, "dominant_share: 0.7")
	assert.Contains(t, contents, "auto_apply: 0.9")
	assert.NotContains(t, contents, "dsn:")
}
