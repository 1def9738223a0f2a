package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "nursia:extract:"

// Cache keeps raw extraction answers keyed by image digest, so the same
// photo is never sent to the provider twice within the TTL.
type Cache interface {
	Get(ctx context.Context, key string) (map[string]any, bool, error)
	Set(ctx context.Context, key string, data map[string]any) error
}

// CacheKey derives the cache key from the full data URL.
func CacheKey(imageDataURL string) string {
	sum := sha256.Sum256([]byte(imageDataURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores entries for ttl. A zero ttl keeps them until evicted.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, false, fmt.Errorf("decode cached extraction: %w", err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

// NoopCache never hits. Used when REDIS_URL is unset.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (map[string]any, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, map[string]any) error        { return nil }
