package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces every slot in a shared Redis.
const redisKeyPrefix = "costpilot:"

// Connect creates a new Redis client from a URL. It parses the URL,
// connects, and pings to verify connectivity before returning.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// RedisStore persists slots in Redis, sealed with a Sealer. Every write
// refreshes the key's TTL, so an unused slot expires after ttl and the
// workspace restores as signed out.
type RedisStore struct {
	client *redis.Client
	sealer *Sealer
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, sealer *Sealer, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, sealer: sealer, ttl: ttl}
}

// Get reads and opens a slot. A value that fails to open is treated as
// absent and removed, so a rotated SECRET_KEY simply signs users out.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	fullKey := redisKeyPrefix + key

	sealed, err := r.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s from redis: %w", key, err)
	}

	value, err := r.sealer.Open(fullKey, sealed)
	if err != nil {
		slog.Warn("discarding unreadable token slot",
			slog.String("key", key),
			slog.Any("error", err),
		)
		_ = r.client.Del(ctx, fullKey).Err()
		return "", ErrNotFound
	}

	return value, nil
}

// Set seals and writes a slot with the configured TTL.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	fullKey := redisKeyPrefix + key

	sealed, err := r.sealer.Seal(fullKey, value)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}

	if err := r.client.Set(ctx, fullKey, sealed, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing %s to redis: %w", key, err)
	}
	return nil
}

// Delete removes a slot.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting %s from redis: %w", key, err)
	}
	return nil
}
