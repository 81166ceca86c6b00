package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/selfmadecero/onevdr/internal/config"
	"github.com/selfmadecero/onevdr/internal/metrics"
)

const connectTimeout = 2 * time.Second

// Cache is a thin JSON cache over Redis. A nil *Cache is valid and turns
// every operation into a no-op, so callers never branch on whether caching
// is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis using the configured address. It returns nil
// (caching disabled) when no address is configured or Redis is unreachable.
func New(cfg *config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[CACHE] Redis unreachable at %s, caching disabled: %v", cfg.Addr, err)
		return nil
	}

	log.Printf("[CACHE] Connected to Redis at %s (ttl=%ds)", cfg.Addr, cfg.TTLSeconds)
	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

// Get unmarshals the cached value for key into out. The first return value
// is false on a miss or when caching is disabled.
func (c *Cache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.RecordCacheLookup(false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	metrics.RecordCacheLookup(true)
	return true, nil
}

// Set stores v under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
