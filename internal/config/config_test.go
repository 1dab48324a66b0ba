package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtmp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Agent.BaseURL)
	assert.Equal(t, "sonic", cfg.Agent.BerryConnection)
	assert.Equal(t, "educhain", cfg.Agent.TokenConnection)
	assert.Equal(t, 60, cfg.Agent.TimeoutSecs)
	assert.Zero(t, cfg.Agent.RateLimit)
	assert.Equal(t, 50, cfg.Batch.ProbeLimit)
	assert.Equal(t, 5, cfg.Batch.ChunkSize)
	assert.Equal(t, 5, cfg.Batch.ListTTLMins)
	assert.Equal(t, 3, cfg.Batch.DetailRetries)
	assert.Equal(t, 2, cfg.Batch.RetryStepSecs)
	assert.Equal(t, "coldchain.db", cfg.Cache.SnapshotPath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtmp(t)

	yaml := `
agent:
  base_url: http://agent.internal:9000
  berry_connection: sonic-staging
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  probe_limit: 10
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://agent.internal:9000", cfg.Agent.BaseURL)
	assert.Equal(t, "sonic-staging", cfg.Agent.BerryConnection)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Batch.ProbeLimit)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Batch.ChunkSize)
	assert.Equal(t, "educhain", cfg.Agent.TokenConnection)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtmp(t)

	yaml := `
agent:
  base_url: http://from-file:8000
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("COLDCHAIN_AGENT_BASE_URL", "http://from-env:8000")
	t.Setenv("COLDCHAIN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "http://from-env:8000", cfg.Agent.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtmp(t)

	t.Setenv("COLDCHAIN_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
