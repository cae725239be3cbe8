package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded entries in Redis with a per-key expiry
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	log.Println("✅ [CACHE] Redis connection established")
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get decodes the entry stored at key into dest
func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  [CACHE] Redis GET %s failed, treating as miss: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("⚠️  [CACHE] Corrupt Redis entry for %s, treating as miss: %v", key, err)
		return false
	}
	return true
}

// Set stores value at key with the configured TTL
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("⚠️  [CACHE] Failed to encode entry for %s: %v", key, err)
		return false
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.Printf("⚠️  [CACHE] Redis SET %s failed: %v", key, err)
		return false
	}
	return true
}

// Ping checks if Redis is healthy
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
