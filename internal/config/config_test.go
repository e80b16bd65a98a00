package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "port: 8080\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "round_robin", cfg.Rotation.Strategy)
	assert.Equal(t, 1, cfg.Rotation.RequestCount)
	assert.Equal(t, 3, cfg.RetryTimes)
	assert.Equal(t, 60, cfg.RequestTimeoutSeconds)
	assert.Equal(t, 15, cfg.Stream.HeartbeatSeconds)
	assert.Equal(t, "accounts", cfg.AuthDir)
}

func TestLoadConfig_RespectsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
port: 9090
auth-dir: custom-accounts
retry-times: 5
rotation:
  strategy: quota_exhausted
  request-count: 10
stream:
  fake-non-stream: true
  heartbeat-seconds: 30
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "custom-accounts", cfg.AuthDir)
	assert.Equal(t, 5, cfg.RetryTimes)
	assert.Equal(t, "quota_exhausted", cfg.Rotation.Strategy)
	assert.Equal(t, 10, cfg.Rotation.RequestCount)
	assert.True(t, cfg.Stream.FakeNonStream)
	assert.Equal(t, 30, cfg.Stream.HeartbeatSeconds)
}

func TestLoadConfig_MissingFileReturnsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesOAuthCredentials(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
port: 8080
antigravity:
  client-id: file-client-id
`)

	t.Setenv("ANTIGRAVITY_CLIENT_ID", "env-client-id")
	t.Setenv("ANTIGRAVITY_CLIENT_SECRET", "env-client-secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-client-id", cfg.Antigravity.ClientID)
	assert.Equal(t, "env-client-secret", cfg.Antigravity.ClientSecret)
}

func TestLoadConfig_ExpandsHomeDirInAuthDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "port: 8080\nauth-dir: \"~/accounts\"\n")

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "accounts"), cfg.AuthDir)
}
