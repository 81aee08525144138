// Package config loads the daemon's environment-sourced settings,
// grounded on teacher's config/config.go (caarlos0/env +
// go-playground/validator), adapted from the API's Postgres/Clerk
// surface to cronlet's filesystem-and-socket surface. CLI flags
// (--data-dir, --verbose, ...) layer on top of this in cmd/cronlet and
// cmd/cronletd; this package only covers what's naturally
// environment-sourced for the long-running daemon.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the daemon's environment-sourced settings. Every field
// has a sane default so a bare `cronletd` works with no
// environment configured at all.
type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	// AdminAddr, left empty, disables the optional admin HTTP surface
	// (SPEC_FULL.md's "Admin HTTP" section). Set to e.g. "127.0.0.1:9090"
	// to enable /metrics, /healthz, /readyz.
	AdminAddr string `env:"ADMIN_ADDR"`

	// HeartbeatStaleSec bounds how long the scheduler loop may go
	// without completing an iteration before /readyz reports down.
	HeartbeatStaleSec int `env:"HEARTBEAT_STALE_SEC" envDefault:"10" validate:"min=1"`

	// NotifyEmail, left empty, disables the failure-notification
	// supplemental feature entirely.
	NotifyEmail  string `env:"NOTIFY_EMAIL"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM" envDefault:"cronlet@localhost"`
}

// Load reads Config from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
