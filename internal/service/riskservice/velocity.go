package riskservice

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVelocityCache counts transfer attempts per wallet inside a
// short rolling window. Advisory data only; the ledger stays in
// Postgres.
type RedisVelocityCache struct {
	client *redis.Client
}

func NewRedisVelocityCache(client *redis.Client) *RedisVelocityCache {
	return &RedisVelocityCache{client: client}
}

func (c *RedisVelocityCache) Bump(ctx context.Context, walletID string, window time.Duration) (int64, error) {
	key := "velocity:" + walletID
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
