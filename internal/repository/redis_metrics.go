package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisMetricsCache is the fast path in front of the Postgres snapshot. The
// TTL equals the freshness window, so a Redis hit is fresh by construction.
type RedisMetricsCache struct {
	client *RedisClient
	ttl    time.Duration
	prefix string
}

func NewRedisMetricsCache(client *RedisClient, ttl time.Duration) *RedisMetricsCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisMetricsCache{client: client, ttl: ttl, prefix: "metrics:"}
}

func (c *RedisMetricsCache) Get(ctx context.Context, accountID string) (*model.CachedMetrics, error) {
	raw, err := c.client.Client.Get(ctx, c.prefix+accountID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMetricsNotFound
		}
		return nil, err
	}
	var m model.CachedMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *RedisMetricsCache) Put(ctx context.Context, m *model.CachedMetrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Client.Set(ctx, c.prefix+m.AccountID, raw, c.ttl).Err()
}

func (c *RedisMetricsCache) Delete(ctx context.Context, accountID string) error {
	return c.client.Client.Del(ctx, c.prefix+accountID).Err()
}
