package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked session token ids until they would have expired
// anyway. Sign-out writes here; every authenticated request checks here.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) Denylist {
	return &redisDenylist{client: client}
}

func (d *redisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired, nothing to deny.
		return nil
	}
	key := "session:revoked:" + tokenID
	if err := d.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

func (d *redisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := "session:revoked:" + tokenID
	_, err := d.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session token: %w", err)
	}
	return true, nil
}
