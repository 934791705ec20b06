package relation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Package-level singleton instance.
var poolInstance *pgxpool.Pool

// Init initializes the relation package with config.
func Init(cfg PostgresConfig) error {
	if !cfg.Enabled {
		return nil
	}

	pool, err := newPool(cfg)
	if err != nil {
		return err
	}

	poolInstance = pool
	return nil
}

// NewPool returns the connection pool singleton, or nil when PostgreSQL is
// not enabled.
func NewPool() *pgxpool.Pool {
	return poolInstance
}

// Close closes the connection pool.
func Close(_ context.Context) error {
	if poolInstance != nil {
		poolInstance.Close()
	}
	return nil
}

func newPool(cfg PostgresConfig) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return pool, nil
}
