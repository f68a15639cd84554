// Package common provides shared utilities for Sift
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Sift
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Scan        ScanConfig    `toml:"scan"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the cache/feedback store backend.
type StorageConfig struct {
	Backend   string `toml:"backend"` // "badger" (default) or "surreal"
	Path      string `toml:"path"`    // badger data directory
	Address   string `toml:"address"` // surreal ws address
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Market MarketConfig `toml:"market"`
	Gemini GeminiConfig `toml:"gemini"`
}

// MarketConfig holds market-data client configuration
type MarketConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// GetTimeout parses and returns the timeout duration
func (c *MarketConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds inference client configuration. Models and APIKeys are
// ordered cheapest/highest-quota first; the client rotates across both.
type GeminiConfig struct {
	APIKeys     []string `toml:"api_keys"`
	Models      []string `toml:"models"`
	Temperature float64  `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
	Timeout     string   `toml:"timeout"`
}

// GetTimeout parses and returns the per-call timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// ScanConfig holds scan pipeline configuration
type ScanConfig struct {
	CoreTickers []string `toml:"core_tickers"` // fixed multiday watch list
	Holdings    []string `toml:"holdings"`     // positions folded into the multiday universe
	MarketProxy string   `toml:"market_proxy"` // broad-market symbol for regime checks
	Timezone    string   `toml:"timezone"`     // exchange time zone

	EnableScheduler bool   `toml:"enable_scheduler"`
	IntradayCron    string `toml:"intraday_cron"`
	MultidayOpenCron  string `toml:"multiday_open_cron"`
	MultidayCloseCron string `toml:"multiday_close_cron"`
	SweepCron         string `toml:"sweep_cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
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
			Backend:   "badger",
			Path:      "data/sift",
			Address:   "ws://localhost:8000/rpc",
			Username:  "root",
			Password:  "root",
			Namespace: "sift",
			Database:  "sift",
		},
		Clients: ClientsConfig{
			Market: MarketConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "15s",
				UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			},
			Gemini: GeminiConfig{
				Models:      []string{"gemini-2.5-flash", "gemini-2.5-pro"},
				Temperature: 0.4,
				MaxTokens:   4096,
				Timeout:     "45s",
			},
		},
		Scan: ScanConfig{
			CoreTickers: []string{
				"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA",
				"AMD", "AVGO", "JPM", "XOM", "UNH", "COST", "NFLX",
			},
			MarketProxy: "SPY",
			Timezone:    "America/New_York",

			EnableScheduler: true,
			// Cron entries are coarse on purpose; the staleness policy does
			// the market-hours and trading-day gating.
			IntradayCron:      "*/10 * * * *",
			MultidayOpenCron:  "40 9 * * 1-5",
			MultidayCloseCron: "10 15 * * 1-5",
			SweepCron:         "30 * * * *",
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
	if env := os.Getenv("SIFT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SIFT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SIFT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("SIFT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("SIFT_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if path := os.Getenv("SIFT_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if addr := os.Getenv("SIFT_SURREAL_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}

	if keys := ResolveGeminiKeys(); len(keys) > 0 {
		config.Clients.Gemini.APIKeys = keys
	}
}

// ResolveGeminiKeys reads inference credentials from the environment.
// SIFT_GEMINI_API_KEYS takes a comma-separated list; GEMINI_API_KEY and
// GOOGLE_API_KEY are single-key fallbacks.
func ResolveGeminiKeys() []string {
	if raw := os.Getenv("SIFT_GEMINI_API_KEYS"); raw != "" {
		parts := strings.Split(raw, ",")
		keys := make([]string, 0, len(parts))
		for _, p := range parts {
			if k := strings.TrimSpace(p); k != "" {
				keys = append(keys, k)
			}
		}
		return keys
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return []string{v}
		}
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
