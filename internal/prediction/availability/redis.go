package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "sketch-predictor:availability"

// RedisStore shares the flag between processes through one TTL'd key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context) (State, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, fmt.Errorf("availability: get %s: %w", r.key, err)
	}

	switch val {
	case "1":
		return Available, nil
	case "0":
		return Unavailable, nil
	default:
		return Unknown, nil
	}
}

func (r *RedisStore) Set(ctx context.Context, available bool) error {
	val := "0"
	if available {
		val = "1"
	}
	if err := r.client.Set(ctx, r.key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("availability: set %s: %w", r.key, err)
	}
	return nil
}
