package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"clanwake/internal/models"
)

const (
	// PingURLEnv overrides the startup ping URL.
	PingURLEnv = "CLANWAKE_PING_URL"
	// DefaultPingURL is used when neither the file nor the environment sets one.
	DefaultPingURL = "http://localhost:5000/api/ping"
)

// Config represents configuration data for the wake-up service.
type Config struct {
	PingURL         string          `yaml:"ping_url"`
	MaxAttempts     int             `yaml:"max_attempts"`
	DelayMS         int             `yaml:"delay_ms"`
	LogLevel        string          `yaml:"log_level"`
	Address         string          `yaml:"address"`
	DataDirectory   string          `yaml:"data_directory"`
	HistoryLimit    int             `yaml:"history_limit"`
	IntervalSeconds int             `yaml:"keep_warm_interval_seconds"`
	Targets         []models.Target `yaml:"targets"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		PingURL:         DefaultPingURL,
		MaxAttempts:     5,
		DelayMS:         1000,
		LogLevel:        "info",
		Address:         ":8080",
		DataDirectory:   filepath.Join(".dist", "data"),
		HistoryLimit:    2000,
		IntervalSeconds: 600,
	}
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
// The ping URL from the environment always wins over the file.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	if env := strings.TrimSpace(os.Getenv(PingURLEnv)); env != "" {
		cfg.PingURL = env
	}
	if err := cfg.normalise(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalise() error {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.PingURL) == "" {
		c.PingURL = defaults.PingURL
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.DelayMS < 0 {
		c.DelayMS = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.DataDirectory == "" {
		c.DataDirectory = defaults.DataDirectory
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = defaults.IntervalSeconds
	}

	// Without explicit targets the keep-warm loop wakes the startup endpoint.
	if len(c.Targets) == 0 {
		c.Targets = []models.Target{{ID: "backend", Name: "Backend", URL: c.PingURL}}
	}
	seen := make(map[string]struct{}, len(c.Targets))
	for i, t := range c.Targets {
		if t.ID == "" {
			return fmt.Errorf("target %d is missing id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("target %s is defined twice", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.URL == "" {
			return fmt.Errorf("target %s url is required", t.ID)
		}
		if t.Name == "" {
			c.Targets[i].Name = t.ID
		}
	}
	return nil
}
