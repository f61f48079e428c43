// Package config loads the jhandid process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/MJE43/jhandi-burja-go/internal/session"
)

// Config is the daemon configuration.
type Config struct {
	HTTPAddr       string        `env:"JHANDI_HTTP_ADDR"        envDefault:"127.0.0.1:8090"`
	LogUTC         bool          `env:"JHANDI_LOG_UTC"          envDefault:"true"`
	TickInterval   time.Duration `env:"JHANDI_TICK_INTERVAL"    envDefault:"45ms"`
	RollMin        time.Duration `env:"JHANDI_ROLL_MIN"         envDefault:"800ms"`
	RollMax        time.Duration `env:"JHANDI_ROLL_MAX"         envDefault:"1100ms"`
	SessionIdleTTL time.Duration `env:"JHANDI_SESSION_IDLE_TTL" envDefault:"30m"`
	ReapInterval   time.Duration `env:"JHANDI_REAP_INTERVAL"    envDefault:"1m"`
	CORSOrigins    []string      `env:"JHANDI_CORS_ORIGINS"     envDefault:"*" envSeparator:","`
	RequestTimeout time.Duration `env:"JHANDI_REQUEST_TIMEOUT"  envDefault:"60s"`
	// RevealDB is the SQLite file for revealed fair seeds. Empty keeps no ledger.
	RevealDB string `env:"JHANDI_REVEAL_DB"`
}

// LoadDotEnv reads path into the environment if it exists. Variables already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Timing returns the spin timing for new sessions.
func (c Config) Timing() session.Timing {
	return session.Timing{Tick: c.TickInterval, RollMin: c.RollMin, RollMax: c.RollMax}
}

// Validate rejects settings that parse but cannot run the server.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: JHANDI_HTTP_ADDR is empty")
	}
	if err := c.Timing().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("config: JHANDI_SESSION_IDLE_TTL must not be negative, got %v", c.SessionIdleTTL)
	}
	if c.SessionIdleTTL > 0 && c.ReapInterval <= 0 {
		return fmt.Errorf("config: JHANDI_REAP_INTERVAL must be positive when reaping, got %v", c.ReapInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: JHANDI_REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	return nil
}
