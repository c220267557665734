package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"zone-api/internal/logger"
	"zone-api/internal/metrics"
)

// Cache：地理编码结果缓存，只缓存成功结果
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool)
	Set(ctx context.Context, key string, r *Result, ttl time.Duration)
}

// RedisCache：Redis 热点缓存；Redis 异常时视为未命中，不阻断主流程
type RedisCache struct {
	rc *redis.Client
}

func NewRedisCache(rc *redis.Client) *RedisCache { return &RedisCache{rc: rc} }

func (c *RedisCache) Get(ctx context.Context, key string) (*Result, bool) {
	s, err := c.rc.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.L().Error("geocode_cache_get_error", "err", err)
		}
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	return &r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, r *Result, ttl time.Duration) {
	b, _ := json.Marshal(r)
	if err := c.rc.Set(ctx, key, string(b), ttl).Err(); err != nil {
		logger.L().Error("geocode_cache_set_error", "err", err)
	}
}

// MemoryCache：未配置 Redis 时的进程内缓存
type MemoryCache struct {
	lru *LRU[Result]
}

func NewMemoryCache(capacity int) *MemoryCache { return &MemoryCache{lru: NewLRU[Result](capacity)} }

func (c *MemoryCache) Get(ctx context.Context, key string) (*Result, bool) {
	r, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	return &r, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, r *Result, ttl time.Duration) {
	c.lru.Set(key, *r, ttl)
}
