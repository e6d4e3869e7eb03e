package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draheim/zoho-sync/internal/domain/shared"
)

const defaultGuardPrefix = "zsync:guard:"

// RedisGuard is a SyncGuard backed by Redis SETNX, for deployments where
// multiple replicas consume the same order events.
type RedisGuard struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisGuard creates a guard on an existing Redis client. The client's
// lifecycle belongs to the caller; Close here is a no-op.
func NewRedisGuard(client *redis.Client, keyPrefix string) *RedisGuard {
	if keyPrefix == "" {
		keyPrefix = defaultGuardPrefix
	}
	return &RedisGuard{client: client, keyPrefix: keyPrefix}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: failed to acquire guard key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache: failed to release guard key: %w", err)
	}
	return nil
}

func (g *RedisGuard) Close() error {
	return nil
}

var _ shared.SyncGuard = (*RedisGuard)(nil)
