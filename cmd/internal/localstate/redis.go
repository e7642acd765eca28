package localstate

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store backed by Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed local state store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "localstate:",
	}
}

func (r *RedisStore) key(scope, key string) string {
	return r.prefix + scope + ":" + key
}

func (r *RedisStore) scopePattern(scope string) string {
	return r.prefix + scope + ":*"
}

// Set writes one value with TTL.
func (r *RedisStore) Set(ctx context.Context, scope, key, value string, ttl time.Duration) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.key(scope, key), value, ttl).Err()
}

// Get reads one value.
func (r *RedisStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return "", false, ErrInvalidKey
	}
	val, err := r.client.Get(ctx, r.key(scope, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Delete removes one key.
func (r *RedisStore) Delete(ctx context.Context, scope, key string) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return r.client.Del(ctx, r.key(scope, key)).Err()
}

// ClearAll removes every key in the scope with a cursor scan, so large scopes
// do not block Redis the way KEYS would.
func (r *RedisStore) ClearAll(ctx context.Context, scope string) error {
	if strings.TrimSpace(scope) == "" {
		return ErrInvalidKey
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.scopePattern(scope), 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
