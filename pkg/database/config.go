package database

import (
	"fmt"
	"time"
)

// Config holds the Postgres connection-pool configuration. Validate
// requires a DSN and MaxOpenConns of at least 1; DefaultConfig fills the
// pool settings with production-ready values.
type Config struct {
	DSN string

	MaxOpenConns    int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config for dsn with the pool defaults this
// module ships with.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 15 * time.Minute,
	}
}

// Validate checks the configuration is usable before opening a pool.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("MaxOpenConns must be at least 1")
	}
	return nil
}
