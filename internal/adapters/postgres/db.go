// Package postgres is the direct Postgres quote store. It talks to the same
// quotes table Supabase exposes over PostgREST, for deployments that reach
// the database without going through the REST gateway.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JxWayne890/dealflow/internal/platform/config"
)

const (
	defaultMaxConns        = 10
	defaultMaxConnIdleTime = 2 * time.Minute
)

// DB wraps the connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against cfg.URL. It does not wait for the server;
// use Ping or the health check for that.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnIdleTime = defaultMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases every connection.
func (d *DB) Close() { d.Pool.Close() }

// Ping checks one connection.
func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }
