package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/chat-relay/internal/config"
	"github.com/weiawesome/chat-relay/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is a short-lived read cache for recent-history pages.
type Cache interface {
	BuildKey(limit int) string
	Get(ctx context.Context, key string) ([]domain.ChatRecord, error)
	Set(ctx context.Context, key string, records []domain.ChatRecord, ttl time.Duration) error
	Close() error
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and returns a cache.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: cfg.CachePrefix,
	}, nil
}

// BuildKey builds the cache key for a recent-history page.
func (c *RedisCache) BuildKey(limit int) string {
	return fmt.Sprintf("%s:recent:%d", c.prefix, limit)
}

// Get fetches cached records.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.ChatRecord, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var records []domain.ChatRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return records, nil
}

// Set stores records with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, records []domain.ChatRecord, ttl time.Duration) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
