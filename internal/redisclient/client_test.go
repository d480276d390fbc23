package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(Options{
		Addr:     "redis.internal:6380",
		Username: "app",
		Password: "hunter2",
		PoolSize: 32,
	})

	assert.Equal(t, "redis.internal:6380", opts.Addr)
	assert.Equal(t, "app", opts.Username)
	assert.Equal(t, "hunter2", opts.Password)
	assert.Equal(t, 32, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 2*time.Second, opts.WriteTimeout)
	assert.Equal(t, 1, opts.MinIdleConns)
}

func TestClientOptionsDefaultPoolSize(t *testing.T) {
	assert.Equal(t, 10, clientOptions(Options{Addr: "localhost:6379"}).PoolSize)
	assert.Equal(t, 10, clientOptions(Options{Addr: "localhost:6379", PoolSize: -3}).PoolSize)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, rdb.Ping(context.Background()).Err())
}

func TestConnectUnreachable(t *testing.T) {
	// A closed miniredis leaves a port nothing listens on.
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), Options{Addr: addr})
	assert.ErrorContains(t, err, "ping redis")
}
