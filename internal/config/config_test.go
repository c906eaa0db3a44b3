package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.worldquantbrain.com", cfg.Platform.BaseURL)
	assert.Equal(t, 5, cfg.Platform.PollIntervalSec)
	assert.Equal(t, "EQUITY", cfg.Settings.InstrumentType)
	assert.Equal(t, "TOP3000", cfg.Settings.Universe)
	assert.Equal(t, 1.25, cfg.Thresholds.MinSharpe)
	assert.Equal(t, "jsonfile", cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Mining.MaxRefineAttempts)
	require.NotNil(t, cfg.Mining.StopOnAccept)
	assert.True(t, *cfg.Mining.StopOnAccept)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
platform:
  base_url: https://brain.example.com
  username: alice
  password: secret
thresholds:
  min_sharpe: 1.5
  min_fitness: 1.2
  min_turnover: 0.05
  max_turnover: 0.5
mining:
  max_iterations: 25
  stop_on_accept: false
storage:
  backend: postgres
  postgres_dsn: postgres://localhost/miner
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://brain.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, 1.5, cfg.Thresholds.MinSharpe)
	assert.Equal(t, 25, cfg.Mining.MaxIterations)
	require.NotNil(t, cfg.Mining.StopOnAccept)
	assert.False(t, *cfg.Mining.StopOnAccept)
	assert.NoError(t, cfg.Validate())

	ts := cfg.ThresholdSet()
	assert.Equal(t, 1.5, ts.MinSharpe)
	assert.Equal(t, 0.5, ts.MaxTurnover)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
platform:
  username: alice
  password: secret
`)
	t.Setenv("BRAIN_BASE_URL", "https://env.example.com")
	t.Setenv("BRAIN_USERNAME", "bob")
	t.Setenv("MAX_ITERATIONS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, "bob", cfg.Platform.Username)
	assert.Equal(t, 7, cfg.Mining.MaxIterations)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	// Missing credentials
	assert.Error(t, cfg.Validate())

	cfg.Platform.Username = "alice"
	cfg.Platform.Password = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Backend = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Backend = "memory"
	cfg.Thresholds.MinTurnover = 0.9
	assert.Error(t, cfg.Validate())
}
