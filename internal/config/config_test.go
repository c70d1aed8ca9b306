package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mockEnv(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.DevEnvironment)
	require.Equal(t, 15*time.Second, cfg.Directory.Timeout)
}

func TestLoadWithEnvFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
dev_environment: true
database:
  path: /tmp/votes.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadWithEnv(path, mockEnv(nil))
	require.NoError(t, err)
	require.True(t, cfg.DevEnvironment)
	require.Equal(t, "/tmp/votes.db", cfg.Database.Path)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadWithEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dev_environment: false\n"), 0644))

	env := mockEnv(map[string]string{"DEV_ENVIRONMENT": "true"})
	cfg, err := LoadWithEnv(path, env)
	require.NoError(t, err)
	require.True(t, cfg.DevEnvironment)
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), mockEnv(nil))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Database.Path, cfg.Database.Path)
}

func TestLoadWithEnvInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dev_environment: [broken"), 0644))

	_, err := LoadWithEnv(path, mockEnv(nil))
	require.Error(t, err)
}
