package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps JSON-encoded entries in process memory.
// Expired entries are unreadable immediately; Sweep removes them physically.
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an in-process cache with the given entry TTL.
// No internal janitor runs; schedule Sweep to evict stale entries.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		cache: gocache.New(ttl, 0),
		ttl:   ttl,
	}
}

// Get decodes the entry stored at key into dest
func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	value, found := m.cache.Get(key)
	if !found {
		return false
	}

	data, ok := value.([]byte)
	if !ok {
		log.Printf("⚠️  [CACHE] Unexpected entry type %T for %s, treating as miss", value, key)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("⚠️  [CACHE] Corrupt entry for %s, treating as miss: %v", key, err)
		return false
	}
	return true
}

// Set stores value at key for the configured TTL
func (m *MemoryCache) Set(_ context.Context, key string, value interface{}) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("⚠️  [CACHE] Failed to encode entry for %s: %v", key, err)
		return false
	}
	m.cache.Set(key, data, m.ttl)
	return true
}

// Sweep evicts expired entries and returns how many were removed
func (m *MemoryCache) Sweep() int {
	before := m.cache.ItemCount()
	m.cache.DeleteExpired()
	evicted := before - m.cache.ItemCount()
	if evicted > 0 {
		log.Printf("🗑️  [CACHE] Swept %d expired entries", evicted)
	}
	return evicted
}

// Len returns the number of stored entries, expired or not
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}

// TTL returns the entry lifetime
func (m *MemoryCache) TTL() time.Duration {
	return m.ttl
}
