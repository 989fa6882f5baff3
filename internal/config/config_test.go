package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesTemplatesAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Template files are written for the operator to edit later.
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "credentials.toml"))

	assert.Equal(t, 100.0, cfg.Trading.StartingCash)
	assert.Equal(t, 15.0, cfg.Risk.DefaultStopLossPercent)
	assert.Equal(t, 0.045, cfg.Metrics.RiskFreeRate)
	assert.Equal(t, 252, cfg.Metrics.TradingDaysPerYear)
	assert.Equal(t, []string{"^RUT", "IWO", "XBI", "^SPX"}, cfg.Metrics.Benchmarks)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 0.3, cfg.AI.ConfidenceThreshold)
	assert.Equal(t, dir, cfg.Trading.DataDir, "data dir defaults to the config dir")
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
starting_cash = 500.0

[risk]
default_stop_loss_percent = 20.0

[ai]
provider = "ollama"
model = "llama3"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 500.0, cfg.Trading.StartingCash)
	assert.Equal(t, 20.0, cfg.Risk.DefaultStopLossPercent)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, "llama3", cfg.AI.Model)
	// Unset keys still get defaults.
	assert.Equal(t, 252, cfg.Metrics.TradingDaysPerYear)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRADER_AI_PROVIDER", "ollama")
	t.Setenv("TRADER_STARTING_CASH", "250")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Credentials.OpenAI.APIKey)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 250.0, cfg.Trading.StartingCash)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative cash", func(c *Config) { c.Trading.StartingCash = -1 }},
		{"stop percent 100", func(c *Config) { c.Risk.DefaultStopLossPercent = 100 }},
		{"confidence above 1", func(c *Config) { c.AI.ConfidenceThreshold = 1.5 }},
		{"unknown provider", func(c *Config) { c.AI.Provider = "psychic" }},
		{"zero trading days", func(c *Config) { c.Metrics.TradingDaysPerYear = 0 }},
		{"zero retries", func(c *Config) { c.Data.MaxRetries = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(t.TempDir())
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCredentialsFileIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{}
	cfg.Trading.DataDir = "/tmp/trader-data"
	assert.Equal(t, filepath.Join("/tmp/trader-data", "trader.db"), cfg.DatabasePath())
}
