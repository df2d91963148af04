// Package common provides shared utilities for fundlens
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for fundlens
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Cache       CacheConfig   `toml:"cache"`
	Refresh     RefreshConfig `toml:"refresh"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the embedded store path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Eastmoney EastmoneyConfig `toml:"eastmoney"`
	Tiantian  TiantianConfig  `toml:"tiantian"`
}

// EastmoneyConfig holds Eastmoney gateway configuration
type EastmoneyConfig struct {
	FundBaseURL  string `toml:"fund_base_url"`
	QuoteBaseURL string `toml:"quote_base_url"`
	KlineBaseURL string `toml:"kline_base_url"`
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EastmoneyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// TiantianConfig holds Tiantian fundgz API configuration
type TiantianConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *TiantianConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig holds TTL settings per cached data class. Durations are strings
// ("60s", "6h") parsed lazily with defaults on parse failure.
type CacheConfig struct {
	RealtimeNavTTL string `toml:"realtime_nav_ttl"`
	KlineTTL       string `toml:"kline_ttl"`
	FundInfoTTL    string `toml:"fund_info_ttl"`
}

// GetRealtimeNavTTL returns the realtime NAV cache TTL. Kept short because
// source quotes move intraday.
func (c *CacheConfig) GetRealtimeNavTTL() time.Duration {
	return parseDurationOr(c.RealtimeNavTTL, time.Minute)
}

// GetKlineTTL returns the kline series cache TTL.
func (c *CacheConfig) GetKlineTTL() time.Duration {
	return parseDurationOr(c.KlineTTL, 6*time.Hour)
}

// GetFundInfoTTL returns the fund info cache TTL.
func (c *CacheConfig) GetFundInfoTTL() time.Duration {
	return parseDurationOr(c.FundInfoTTL, time.Hour)
}

// RefreshConfig holds background scheduler intervals.
type RefreshConfig struct {
	EstimateInterval string `toml:"estimate_interval"`
	AlertInterval    string `toml:"alert_interval"`
	NavSyncInterval  string `toml:"nav_sync_interval"`
}

// GetEstimateInterval returns the estimate refresh interval.
func (c *RefreshConfig) GetEstimateInterval() time.Duration {
	return parseDurationOr(c.EstimateInterval, time.Minute)
}

// GetAlertInterval returns the alert polling interval.
func (c *RefreshConfig) GetAlertInterval() time.Duration {
	return parseDurationOr(c.AlertInterval, time.Minute)
}

// GetNavSyncInterval returns the published-NAV sync interval.
func (c *RefreshConfig) GetNavSyncInterval() time.Duration {
	return parseDurationOr(c.NavSyncInterval, time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/fundlens",
		},
		Clients: ClientsConfig{
			Eastmoney: EastmoneyConfig{
				FundBaseURL:  "https://fundmobapi.eastmoney.com/FundMNewApi",
				QuoteBaseURL: "https://push2.eastmoney.com/api/qt",
				KlineBaseURL: "https://push2his.eastmoney.com/api/qt",
				RateLimit:    5,
				Timeout:      "30s",
			},
			Tiantian: TiantianConfig{
				BaseURL:   "https://fundgz.1234567.com.cn/js",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Cache: CacheConfig{
			RealtimeNavTTL: "60s",
			KlineTTL:       "6h",
			FundInfoTTL:    "1h",
		},
		Refresh: RefreshConfig{
			EstimateInterval: "60s",
			AlertInterval:    "60s",
			NavSyncInterval:  "1h",
		},
		Logging: LoggingConfig{
			Level: "info",
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

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDLENS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDLENS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDLENS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDLENS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FUNDLENS_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if ttl := os.Getenv("FUNDLENS_REALTIME_NAV_TTL"); ttl != "" {
		config.Cache.RealtimeNavTTL = ttl
	}
}
