// Package database provides the Postgres connection pool and embedded
// golang-migrate migrations backing the vector store, deck repository, and
// audit sink.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go/pgx"
)

// Client wraps a pooled Postgres connection. Every table-specific
// repository in this module (vectorstore, deck, audit) is built on the
// same pool rather than opening its own connections.
type Client struct {
	Pool *pgxpool.Pool
}

// NewClient opens a connection pool per cfg, applies pending migrations,
// and returns a ready Client. The pool is pinged once before migrations
// run so misconfiguration fails fast.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("database connected", "max_conns", poolCfg.MaxConns)
	return &Client{Pool: pool}, nil
}

// Close releases every connection in the pool.
func (c *Client) Close() {
	c.Pool.Close()
}
