// Package config loads client and server settings from an optional
// YAML file with environment-variable fallback for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultTimeoutSeconds = 10

// Credentials is the DB API key pair. Both parts are required; the
// upstream rejects either alone.
type Credentials struct {
	ClientID string `yaml:"client_id"`
	APIKey   string `yaml:"api_key"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// ClientConfig contains upstream client settings
type ClientConfig struct {
	BaseURL        string `yaml:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
}

// Config is the root configuration structure
type Config struct {
	Credentials Credentials  `yaml:"credentials"`
	Server      ServerConfig `yaml:"server"`
	Client      ClientConfig `yaml:"client"`
}

// Timeout returns the configured upstream timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// Load reads the config file at path (skipped when path is empty),
// fills missing credentials from DB_CLIENT_ID / DB_API_KEY, applies
// defaults, and validates the result.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if cfg.Credentials.ClientID == "" {
		cfg.Credentials.ClientID = os.Getenv("DB_CLIENT_ID")
	}
	if cfg.Credentials.APIKey == "" {
		cfg.Credentials.APIKey = os.Getenv("DB_API_KEY")
	}
	if cfg.Client.TimeoutSeconds == 0 {
		cfg.Client.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
