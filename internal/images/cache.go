package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores image lookups keyed by query and count.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, urls []string)
}

// RedisCache keeps lookups in Redis, shared by every replica.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: "atlas:images:", ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("image cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		c.logger.Warn("image cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return urls, true
}

func (c *RedisCache) Set(ctx context.Context, key string, urls []string) {
	data, err := json.Marshal(urls)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("image cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// MemoryCache is the in-process fallback when no Redis is configured.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	urls, ok := v.([]string)
	return urls, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, urls []string) {
	c.store.SetDefault(key, urls)
}

// CachedSearcher consults a Cache before delegating. Failures are not cached.
type CachedSearcher struct {
	next  Searcher
	cache Cache
}

func NewCachedSearcher(next Searcher, cache Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

func (s *CachedSearcher) SearchImages(ctx context.Context, query string, count int) ([]string, error) {
	key := fmt.Sprintf("%s|%d", query, count)
	if urls, ok := s.cache.Get(ctx, key); ok {
		return urls, nil
	}
	urls, err := s.next.SearchImages(ctx, query, count)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, urls)
	return urls, nil
}
