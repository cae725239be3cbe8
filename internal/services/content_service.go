package services

import (
	"context"
	"log"
	"selen/internal/cache"
	"time"
)

// ContentStore resolves a normalized trigger key to its stored fragments.
// An empty result is not an error.
type ContentStore interface {
	FindByTrigger(ctx context.Context, key string) ([]string, error)
}

// CachedContentStore memoizes a ContentStore in the content cache tier
type CachedContentStore struct {
	store   ContentStore
	cache   cache.Cache
	metrics *Metrics
}

// NewCachedContentStore wraps store with the content tier of c
func NewCachedContentStore(store ContentStore, c cache.Cache, metrics *Metrics) *CachedContentStore {
	if c == nil {
		c = cache.Noop{}
	}
	return &CachedContentStore{store: store, cache: c, metrics: metrics}
}

// FindByTrigger returns cached fragments for key or queries the store.
// Only non-empty results are written back.
func (s *CachedContentStore) FindByTrigger(ctx context.Context, key string) ([]string, error) {
	cacheKey := cache.ContentKey(key)

	var fragments []string
	if s.cache.Get(ctx, cacheKey, &fragments) && len(fragments) > 0 {
		s.metrics.RecordCacheLookup("content", true)
		return fragments, nil
	}
	s.metrics.RecordCacheLookup("content", false)

	started := time.Now()
	fragments, err := s.store.FindByTrigger(ctx, key)
	s.metrics.ObserveUpstream("content", started)
	if err != nil {
		return nil, err
	}

	if len(fragments) > 0 && !s.cache.Set(ctx, cacheKey, fragments) {
		log.Printf("⚠️  [CACHE] Could not store content for '%s'", key)
	}
	return fragments, nil
}
