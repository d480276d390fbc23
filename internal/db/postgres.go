package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the pool settings the service resolves from its environment.
// Zero values fall back to defaults sized for a single-barber deployment.
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Connect builds a tuned pgx pool and pings it, so a bad DSN or an
// unreachable database fails at startup rather than on the first booking.
func Connect(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(c)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

func poolConfig(c Config) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = c.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	cfg.MinConns = c.MinConns
	if cfg.MinConns <= 0 {
		cfg.MinConns = 1
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	return cfg, nil
}
