// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at
// cycle start and treated as immutable for the rest of the cycle.
type Config struct {
	Trading     TradingConfig `mapstructure:"trading"`
	Risk        RiskConfig    `mapstructure:"risk"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	AI          AIConfig      `mapstructure:"ai"`
	Data        DataConfig    `mapstructure:"data"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// TradingConfig holds ledger and cycle configuration.
type TradingConfig struct {
	DataDir      string  `mapstructure:"data_dir"`
	StartingCash float64 `mapstructure:"starting_cash"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	DefaultStopLossPercent float64 `mapstructure:"default_stop_loss_percent"`
	MaxPositions           int     `mapstructure:"max_positions"`
}

// MetricsConfig holds performance analytics configuration.
type MetricsConfig struct {
	RiskFreeRate       float64  `mapstructure:"risk_free_rate"`
	TradingDaysPerYear int      `mapstructure:"trading_days_per_year"`
	Benchmarks         []string `mapstructure:"benchmarks"`
}

// AIConfig holds recommendation adapter configuration.
type AIConfig struct {
	Provider            string  `mapstructure:"provider"` // "openai", "ollama"
	Model               string  `mapstructure:"model"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	MaxRecommendations  int     `mapstructure:"max_recommendations"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
}

// DataConfig holds market data gateway configuration.
type DataConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
	Ollama OllamaCredentials `mapstructure:"ollama"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// OllamaCredentials holds the Ollama endpoint location.
type OllamaCredentials struct {
	Host string `mapstructure:"host"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/microcap-trader"
	}
	return filepath.Join(home, ".config", "microcap-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	_ = godotenv.Load()

	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Trading.DataDir == "" {
		cfg.Trading.DataDir = configDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.starting_cash", 100.0)
	v.SetDefault("risk.default_stop_loss_percent", 15.0)
	v.SetDefault("risk.max_positions", 10)
	v.SetDefault("metrics.risk_free_rate", 0.045)
	v.SetDefault("metrics.trading_days_per_year", 252)
	v.SetDefault("metrics.benchmarks", []string{"^RUT", "IWO", "XBI", "^SPX"})
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.confidence_threshold", 0.3)
	v.SetDefault("ai.max_recommendations", 7)
	v.SetDefault("ai.timeout_seconds", 60)
	v.SetDefault("data.timeout_seconds", 15)
	v.SetDefault("data.max_retries", 2)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Credentials.Ollama.Host = v
	}
	if v := os.Getenv("TRADER_DATA_DIR"); v != "" {
		cfg.Trading.DataDir = v
	}
	if v := os.Getenv("TRADER_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("TRADER_STARTING_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.StartingCash = cash
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.StartingCash < 0 {
		return fmt.Errorf("starting_cash must be non-negative")
	}
	if c.Risk.DefaultStopLossPercent < 0 || c.Risk.DefaultStopLossPercent >= 100 {
		return fmt.Errorf("default_stop_loss_percent must be in [0, 100)")
	}
	if c.Risk.MaxPositions < 0 {
		return fmt.Errorf("max_positions must be non-negative")
	}
	if c.Metrics.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading_days_per_year must be positive")
	}
	if c.AI.ConfidenceThreshold < 0 || c.AI.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1")
	}
	if c.AI.Provider != "" && c.AI.Provider != "openai" && c.AI.Provider != "ollama" {
		return fmt.Errorf("unknown ai provider: %s (must be 'openai' or 'ollama')", c.AI.Provider)
	}
	if c.Data.MaxRetries < 1 {
		return fmt.Errorf("data.max_retries must be at least 1")
	}
	return nil
}

// DataTimeout returns the per-call market data timeout.
func (c *Config) DataTimeout() time.Duration {
	return time.Duration(c.Data.TimeoutSeconds) * time.Second
}

// AITimeout returns the per-call recommendation timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// DatabasePath returns the location of the ledger database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Trading.DataDir, "trader.db")
}
