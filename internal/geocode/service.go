package geocode

import (
	"context"
	"time"

	"zone-api/internal/logger"
)

// Service：先校验、再查缓存、最后单次请求上游
// 约束：上游失败不重试；错误不入缓存；ttl<=0 或 cache 为 nil 时不缓存
type Service struct {
	upstream Geocoder
	cache    Cache
	ttl      time.Duration
}

func NewService(upstream Geocoder, cache Cache, ttl time.Duration) *Service {
	return &Service{upstream: upstream, cache: cache, ttl: ttl}
}

func (s *Service) cacheEnabled() bool { return s.cache != nil && s.ttl > 0 }

func (s *Service) Geocode(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := req.CacheKey()
	if s.cacheEnabled() {
		if r, ok := s.cache.Get(ctx, key); ok {
			logger.L().Debug("geocode_cache_hit", "key", key)
			return r, nil
		}
	}
	r, err := s.upstream.Geocode(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.cacheEnabled() {
		s.cache.Set(ctx, key, r, s.ttl)
	}
	return r, nil
}
