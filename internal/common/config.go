// Package common provides shared utilities for stockmcp
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Transport names accepted by ServerConfig.Transport
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Provider names accepted by ProviderConfig.Name
const (
	ProviderYahoo = "yahoo"
	ProviderEODHD = "eodhd"
)

// Config holds all configuration for stockmcp
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Fallback    FallbackConfig `toml:"fallback"`
	Provider    ProviderConfig `toml:"provider"`
	Clients     ClientsConfig  `toml:"clients"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds MCP server configuration
type ServerConfig struct {
	Name      string `toml:"name"`
	Transport string `toml:"transport"` // "stdio" (default) or "http"
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
}

// FallbackConfig points at the user-maintained price table
type FallbackConfig struct {
	Path string `toml:"path"`
}

// ProviderConfig selects the live data provider and bounds every live call
type ProviderConfig struct {
	Name    string `toml:"name"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the per-retrieval timeout
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo  YahooConfig  `toml:"yahoo"`
	EODHD  EODHDConfig  `toml:"eodhd"`
	Gemini GeminiConfig `toml:"gemini"`
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration used by the chat client
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Name:      "Stock Server",
			Transport: TransportStdio,
			Host:      "0.0.0.0",
			Port:      4242,
		},
		Fallback: FallbackConfig{
			Path: "stocks_data.csv",
		},
		Provider: ProviderConfig{
			Name:    ProviderYahoo,
			Timeout: "10s",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL: "https://query1.finance.yahoo.com",
				Timeout: "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/stockmcp.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
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
	normalize(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if t := os.Getenv("STOCK_TRANSPORT"); t != "" {
		config.Server.Transport = t
	}

	if p := os.Getenv("STOCK_PROVIDER"); p != "" {
		config.Provider.Name = p
	}

	if t := os.Getenv("STOCK_LIVE_TIMEOUT"); t != "" {
		config.Provider.Timeout = t
	}

	if level := os.Getenv("STOCK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("STOCK_CSV_PATH"); path != "" {
		config.Fallback.Path = path
	}
}

// normalize lower-cases enum-like settings and resets unknown values to defaults.
func normalize(config *Config) {
	t := strings.ToLower(strings.TrimSpace(config.Server.Transport))
	if t != TransportHTTP {
		t = TransportStdio
	}
	config.Server.Transport = t

	p := strings.ToLower(strings.TrimSpace(config.Provider.Name))
	if p != ProviderEODHD {
		p = ProviderYahoo
	}
	config.Provider.Name = p
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment or the configured fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"eodhd_api_key":  {"EODHD_API_KEY", "STOCK_EODHD_API_KEY"},
		"gemini_api_key": {"GEMINI_API_KEY", "STOCK_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
