package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppConfig.Web.Port, cfg.Web.Port)
	assert.Equal(t, 20, cfg.Backend.PageSize)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout())
	assert.Equal(t, 30*time.Minute, cfg.WorkspaceIdle())
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "backoffice.yml")
	data := []byte(`
system:
  workdir: /tmp/desk
web:
  port: 9000
backend:
  base_url: http://content.local/api/
  page_size: 50
jobs:
  workspace_idle: 5
`)
	require.NoError(t, os.WriteFile(file, data, 0o600))

	t.Setenv("BACKOFFICE_WEB_PORT", "9100")
	t.Setenv("BACKOFFICE_DB_DEBUG", "true")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/desk", cfg.System.Workdir)
	assert.Equal(t, 9100, cfg.Web.Port)
	assert.Equal(t, "http://content.local/api", cfg.Backend.BaseURL)
	assert.Equal(t, 50, cfg.Backend.PageSize)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, 5*time.Minute, cfg.WorkspaceIdle())
	assert.Equal(t, "/tmp/desk/data", cfg.GetDataDir())
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(file, []byte("web: [1, 2"), 0o600))

	_, err := LoadConfig(file)
	assert.Error(t, err)
}
