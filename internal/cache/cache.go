package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pharmacart/pharmacy-api/internal/config"
)

// ErrMiss is returned when a key is absent so callers don't need to know
// about redis.Nil.
var ErrMiss = errors.New("cache miss")

// Cache is a thin Redis wrapper used for read-through caching of catalog
// responses. It is an optimization only: every method degrades to ErrMiss or
// a plain error and callers fall back to the database. A nil *Cache is valid
// and behaves as an always-empty cache, which is how the API runs when Redis
// is unreachable at startup.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		ttl: cfg.TTL,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// GetJSON unmarshals the cached value at key into dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// SetJSON marshals value and stores it at key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops the given keys, e.g. after a catalog write.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidatePrefix drops every key under the prefix via SCAN, for cache
// families whose members are not enumerable up front (e.g. one entry per
// filter combination).
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
