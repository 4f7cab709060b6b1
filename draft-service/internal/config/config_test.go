package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServiceConfig(t *testing.T, base string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ServiceName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o600))
	return root
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_DIR", writeServiceConfig(t, "log:\n  level: warn\njwt:\n  secret: \"${DRAFTMAIL_UNSET_SECRET}\"\n"))
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, int64(1), cfg.Generation.MaxConcurrent)
	assert.Empty(t, cfg.JWT.Secret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", writeServiceConfig(t, "generation:\n  model: a\n"))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("GENERATION_MODEL", "b")
	t.Setenv("GENERATION_MAX_CONCURRENT", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.Generation.Model)
	assert.Equal(t, int64(4), cfg.Generation.MaxConcurrent)
}

func TestLoad_InvalidTemplate(t *testing.T) {
	t.Setenv("CONFIG_DIR", writeServiceConfig(t, "generation:\n  template: \"no placeholder\"\n"))
	t.Setenv("CONFIG_ENV", "test")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_Decoding(t *testing.T) {
	cfg := defaults()
	cfg.Generation.Mode = "creative"
	assert.Error(t, cfg.Validate())

	cfg = defaults()
	cfg.Generation.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())
}
