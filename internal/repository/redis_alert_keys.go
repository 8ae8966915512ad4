package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAlertKeyStore keeps the dedup index in Redis. Expiring keys use native
// TTLs, so pruning is Redis's job; keys marked with ttl 0 persist.
type RedisAlertKeyStore struct {
	client *RedisClient
	prefix string
}

func NewRedisAlertKeyStore(client *RedisClient) *RedisAlertKeyStore {
	return &RedisAlertKeyStore{client: client, prefix: "alertkey:"}
}

func (s *RedisAlertKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	err := s.client.Client.Get(ctx, s.prefix+key).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisAlertKeyStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	// SET NX keeps the first writer's expiry on a concurrent scan
	return s.client.Client.SetNX(ctx, s.prefix+key, 1, ttl).Err()
}

// Prune is a no-op: expiring keys carry Redis TTLs.
func (s *RedisAlertKeyStore) Prune(ctx context.Context) (int, error) {
	return 0, nil
}
