// Package config loads service configuration from a YAML file with
// environment variable overrides applied by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port                   int      `yaml:"port" validate:"min=1,max=65535"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" validate:"min=1"`
	EnableCORS             bool     `yaml:"enable_cors"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	MaxBodySize            string   `yaml:"max_body_size"`
	RateLimitRequests      int      `yaml:"rate_limit_requests" validate:"min=0"`
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig holds Postgres settings
type DatabaseConfig struct {
	URL            string `yaml:"url" validate:"required"`
	MaxConnections int    `yaml:"max_connections" validate:"min=1"`
	MinConnections int    `yaml:"min_connections" validate:"min=0"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   8080,
			ShutdownTimeoutSeconds: 10,
			EnableCORS:             true,
			AllowedOrigins:         []string{"http://localhost:3000"},
			MaxBodySize:            "1M",
			RateLimitRequests:      100,
		},
		Database: DatabaseConfig{
			URL:            "postgres://localhost:5432/cloudbill?sslmode=disable",
			MaxConnections: 25,
			MinConnections: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a configuration file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks a configuration against its struct constraints
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}
