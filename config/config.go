// Package config holds the application-level settings: which data provider to
// use, which symbols to watch, and where the server and result files live.
// Strategy parameters are not here; they ride in the run config consumed by
// the backtest package.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data providers.
const (
	ProviderStooq  = "stooq"
	ProviderAlpaca = "alpaca"
)

// YAMLConfig mirrors the application config file.
type YAMLConfig struct {
	Data struct {
		Provider string   `yaml:"provider"`
		Symbols  []string `yaml:"symbols"`
	} `yaml:"data"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Results struct {
		HistoryPath string `yaml:"history_path"`
	} `yaml:"results"`
}

// Config is the resolved application configuration.
type Config struct {
	// HTTP server port
	Port int

	// Market data provider: stooq or alpaca
	Provider string

	// Watchlist scanned for entries
	Symbols []string

	// Where run results accumulate
	HistoryPath string
}

// DefaultConfig is the baseline every load starts from.
var DefaultConfig = Config{
	Port:        19530,
	Provider:    ProviderStooq,
	HistoryPath: "data/results.json",
	Symbols: []string{
		"AAPL",
		"MSFT",
		"NVDA",
		"AMD",
		"META",
	},
}

// LoadFromFile reads a YAML application config.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig
	if yc.Data.Provider != "" {
		cfg.Provider = strings.ToLower(yc.Data.Provider)
	}
	if len(yc.Data.Symbols) > 0 {
		cfg.Symbols = normalizeSymbols(yc.Data.Symbols)
	}
	if yc.Server.Port > 0 {
		cfg.Port = yc.Server.Port
	}
	if yc.Results.HistoryPath != "" {
		cfg.HistoryPath = yc.Results.HistoryPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfig resolves the configuration: config file over environment over
// defaults. A .env file, when present, seeds the environment first so Alpaca
// credentials can live next to the binary.
func GetConfig(configPath string) *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig
	if configPath != "" {
		if c, err := LoadFromFile(configPath); err == nil {
			cfg = *c
		} else {
			fmt.Printf("warning: config file %s: %v\n", configPath, err)
		}
	}

	if p := os.Getenv("SWING_PROVIDER"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	if s := os.Getenv("SWING_SYMBOLS"); s != "" {
		cfg.Symbols = normalizeSymbols(strings.Split(s, ","))
	}

	return &cfg
}

// Validate rejects unknown providers and empty watchlists.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderStooq, ProviderAlpaca:
	default:
		return fmt.Errorf("unknown data provider: %s", c.Provider)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
