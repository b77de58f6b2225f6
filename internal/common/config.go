// Package common provides shared utilities for Vire Chart
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// Config holds all configuration for Vire Chart
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Chart       ChartConfig   `toml:"chart"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ChartConfig holds the default chart request and drawing geometry
type ChartConfig struct {
	Symbol string        `toml:"symbol"`
	Year   int           `toml:"year"`
	Mode   string        `toml:"mode"` // "dual" or "simple"
	Width  float64       `toml:"width"`
	Height float64       `toml:"height"`
	Margin models.Margin `toml:"margin"`
}

// ChartMode parses the configured mode, falling back to dual-axis
func (c *ChartConfig) ChartMode() models.ChartMode {
	mode, err := models.ParseChartMode(c.Mode)
	if err != nil {
		return models.ModeDualAxis
	}
	return mode
}

// Geometry returns the configured drawing geometry
func (c *ChartConfig) Geometry() models.Geometry {
	return models.Geometry{
		Width:  c.Width,
		Height: c.Height,
		Margin: c.Margin,
	}
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Cache CacheConfig `toml:"cache"`
}

// CacheConfig holds the bar cache location and lifetime.
// Path ":memory:" keeps the cache in process memory.
type CacheConfig struct {
	Path string `toml:"path"`
	TTL  string `toml:"ttl"` // empty means derive from the requested year
}

// GetTTL parses the configured TTL. Zero means no fixed TTL.
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Chart: ChartConfig{
			Symbol: "AAPL.US",
			Year:   2022,
			Mode:   "dual",
			Width:  1200,
			Height: 400,
			Margin: models.Margin{Top: 20, Right: 250, Bottom: 20, Left: 40},
		},
		Storage: StorageConfig{
			Cache: CacheConfig{Path: ":memory:"},
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				APIKey:    "demo",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Outputs:  []string{"console"},
			FilePath: "./logs/vire-chart.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIRE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("VIRE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("VIRE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("VIRE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	for _, name := range []string{"EODHD_API_KEY", "VIRE_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}

	if v := os.Getenv("VIRE_CHART_SYMBOL"); v != "" {
		config.Chart.Symbol = strings.ToUpper(v)
	}

	if v := os.Getenv("VIRE_CHART_YEAR"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			config.Chart.Year = y
		}
	}

	if v := os.Getenv("VIRE_CHART_MODE"); v != "" {
		config.Chart.Mode = v
	}

	if v := os.Getenv("VIRE_CACHE_PATH"); v != "" {
		config.Storage.Cache.Path = v
	}
}

// Validate checks the values the chart engine cannot work without
func (c *Config) Validate() error {
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart width and height must be positive, got %gx%g", c.Chart.Width, c.Chart.Height)
	}
	if _, err := models.ParseChartMode(c.Chart.Mode); err != nil {
		return fmt.Errorf("chart.mode: %w", err)
	}
	if c.Chart.Symbol == "" {
		return fmt.Errorf("chart.symbol must not be empty")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
