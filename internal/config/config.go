// Package config provides environment-driven configuration for the bridge.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds application-wide configuration.
type Config struct {
	// Addr is the listen address of the host bridge.
	Addr string `env:"GITBRIDGE_ADDR" envDefault:":8080"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `env:"GITBRIDGE_LOG_LEVEL" envDefault:"info"`
	// LogPretty switches to human-readable console logging.
	LogPretty bool `env:"GITBRIDGE_LOG_PRETTY" envDefault:"false"`
	// DefaultRemote, when set, is ingested as a shared clone source at
	// startup so sessions can clone without live network access.
	DefaultRemote string `env:"GITBRIDGE_DEFAULT_REMOTE"`
	// EnableCORS controls permissive CORS on the bridge API.
	EnableCORS bool `env:"GITBRIDGE_CORS" envDefault:"true"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
