package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Cache key namespaces. Every key ends with the owning user id.
const (
	cacheNSTeacherLessons  = "lessons:teacher"
	cacheNSTutorLessons    = "lessons:tutor"
	cacheNSTeacherProfiles = "profiles:teacher"
	cacheNSTutorProfiles   = "profiles:tutor"
	cacheNSClasses         = "classes"
)

func cacheKey(namespace, userID string) string {
	return fmt.Sprintf("%s:%s", namespace, userID)
}

// CacheService wraps the Redis snapshots with metrics and collapses
// concurrent reloads of the same key.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	loads      singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:        repo,
		metrics:     metrics,
		defaultTTL:  defaultTTL,
		logger:      logger,
		enabled:     enabled,
		generations: map[string]uint64{},
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateUser drops the cached list of one resource for a user. Loads
// already running for that list will not store their result.
func (s *CacheService) InvalidateUser(ctx context.Context, namespace, userID string) {
	if !s.Enabled() {
		return
	}
	key := cacheKey(namespace, userID)
	s.mu.Lock()
	s.generations[key]++
	s.mu.Unlock()
	_ = s.Invalidate(ctx, key+"*")
}

func (s *CacheService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// cachedList serves a user's whole list from cache. On a miss one caller
// loads and stores it while concurrent callers for the same key wait for that
// result. A snapshot loaded across an invalidation is returned but not kept.
// Cache failures degrade to a direct load.
func cachedList[T any](ctx context.Context, cache *CacheService, key string, load func(context.Context) ([]T, error)) ([]T, bool, error) {
	if !cache.Enabled() {
		items, err := load(ctx)
		if err != nil {
			return nil, false, err
		}
		return nonNil(items), false, nil
	}

	var cached []T
	if hit, err := cache.Get(ctx, key, &cached); err == nil && hit {
		return nonNil(cached), true, nil
	}

	gen := cache.generation(key)
	v, err, _ := cache.loads.Do(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		items = nonNil(items)
		if cache.generation(key) != gen {
			return items, nil
		}
		_ = cache.Set(ctx, key, items, 0)
		// An invalidation may have landed between the check and the write.
		if cache.generation(key) != gen {
			_ = cache.Invalidate(ctx, key)
		}
		return items, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := v.([]T)
	items := make([]T, len(shared))
	copy(items, shared)
	return items, false, nil
}
