package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options carries the connection settings the config layer resolved, either
// from REDIS_URL or from the individual REDIS_* variables.
type Options struct {
	Addr     string
	Username string
	Password string
	PoolSize int
}

// Connect opens a client and verifies the connection before anything takes
// a slot lock or checks the denylist through it.
func Connect(ctx context.Context, o Options) (*redis.Client, error) {
	rdb := redis.NewClient(clientOptions(o))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

func clientOptions(o Options) *redis.Options {
	poolSize := o.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	// Lock and denylist calls sit on the booking hot path; a slow Redis
	// should fail the request, not stall it.
	return &redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	}
}
