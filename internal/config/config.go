// Package config handles configuration loading for cryptodash.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "CRYPTODASH"

// Config represents the complete application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"  yaml:"provider"  json:"provider"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard" json:"dashboard"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	Name       string `mapstructure:"name"        yaml:"name"        json:"name"` // "coingecko"
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"     json:"-"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	PerPage    int    `mapstructure:"per_page"    yaml:"per_page"    json:"per_page"`
	Currency   string `mapstructure:"currency"    yaml:"currency"    json:"currency"`
	ChartDays  int    `mapstructure:"chart_days"  yaml:"chart_days"  json:"chart_days"`
}

// Timeout returns the HTTP client timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// DashboardConfig holds view defaults.
type DashboardConfig struct {
	DefaultAsset    string `mapstructure:"default_asset"    yaml:"default_asset"    json:"default_asset"`
	DefaultMode     string `mapstructure:"default_mode"     yaml:"default_mode"     json:"default_mode"` // "line" or "candlestick"
	DisplayTimezone string `mapstructure:"display_timezone" yaml:"display_timezone" json:"display_timezone"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.cryptodash/config.yaml (home directory)
//  3. /etc/cryptodash/config.yaml (system)
//
// Environment variables override config file values.
// Format: CRYPTODASH_<SECTION>_<KEY>, e.g., CRYPTODASH_PROVIDER_API_KEY
func Load() (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".cryptodash"))
	v.AddConfigPath("/etc/cryptodash")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.normalize()
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	cfg.normalize()
	return &cfg, nil
}

// loadDotEnv populates the process environment from path without
// overwriting variables that are already set.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.name", "coingecko")
	v.SetDefault("provider.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout_sec", 15)
	v.SetDefault("provider.per_page", 12)
	v.SetDefault("provider.currency", "usd")
	v.SetDefault("provider.chart_days", 7)

	// Dashboard defaults
	v.SetDefault("dashboard.default_asset", "bitcoin")
	v.SetDefault("dashboard.default_mode", "line")
	v.SetDefault("dashboard.display_timezone", "Local")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_PROVIDER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	// CoinGecko's own variable name, for users who already export it.
	if cfg.Provider.APIKey == "" {
		if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
			cfg.Provider.APIKey = key
		}
	}
}

func (c *Config) normalize() {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	c.Provider.Currency = strings.ToLower(strings.TrimSpace(c.Provider.Currency))
	c.Dashboard.DefaultMode = strings.ToLower(strings.TrimSpace(c.Dashboard.DefaultMode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Provider.Name == "":
		return fmt.Errorf("provider.name must be set")
	case c.Provider.TimeoutSec <= 0:
		return fmt.Errorf("provider.timeout_sec must be positive, got %d", c.Provider.TimeoutSec)
	case c.Provider.PerPage <= 0 || c.Provider.PerPage > 250:
		return fmt.Errorf("provider.per_page must be in 1..250, got %d", c.Provider.PerPage)
	case c.Provider.Currency != "usd":
		return fmt.Errorf("provider.currency %q unsupported: only usd", c.Provider.Currency)
	case c.Provider.ChartDays <= 0:
		return fmt.Errorf("provider.chart_days must be positive, got %d", c.Provider.ChartDays)
	case c.Dashboard.DefaultAsset == "":
		return fmt.Errorf("dashboard.default_asset must be set")
	case c.Dashboard.DefaultMode != "line" && c.Dashboard.DefaultMode != "candlestick":
		return fmt.Errorf("dashboard.default_mode must be line or candlestick, got %q", c.Dashboard.DefaultMode)
	case c.API.Port <= 0 || c.API.Port > 65535:
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	case c.Logging.Format != "text" && c.Logging.Format != "json":
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if tz := c.Dashboard.DisplayTimezone; tz != "" && tz != "Local" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("dashboard.display_timezone: %w", err)
		}
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
