// Package config loads the daemon configuration for cmd/tendril.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration.
type Config struct {
	Version int `yaml:"version"`
	Server  struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Store struct {
		// Backend selects the session store: "memory", "redis" or "sqlite".
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			// SessionTTL expires idle sessions, e.g. "24h". Empty means never.
			SessionTTL string `yaml:"session_ttl"`
		} `yaml:"redis"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"store"`
	Transport struct {
		// WebhookURL receives outbound payloads as JSON POSTs. Empty logs
		// them instead, which is only useful in development.
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"transport"`
	Engine struct {
		MaxHops int `yaml:"max_hops"`
	} `yaml:"engine"`
	AI struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`
	// Flows is the path to a YAML file with the flow catalog served at boot.
	Flows string `yaml:"flows"`
}

// Addr returns the listen address, defaulting to ":8080".
func (c *Config) Addr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// StoreBackend returns the selected store backend, defaulting to "memory".
func (c *Config) StoreBackend() string {
	if c.Store.Backend == "" {
		return "memory"
	}
	return c.Store.Backend
}

// SessionTTL parses the redis session TTL. Empty means no expiration.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Store.Redis.SessionTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Store.Redis.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid store.redis.session_ttl: %w", err)
	}
	return ttl, nil
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d", cfg.Version)
	}
	switch cfg.StoreBackend() {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return &cfg, nil
}
