package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process cache with per-key expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	if val, found := c.cache.Get(key); found {
		return val.(string), nil
	}
	return "", ErrMiss
}

// Set stores a value with the given TTL. Zero uses the default TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, stringify(value), ttl)
	return nil
}

// Add stores a value only if the key is absent or expired
func (c *MemoryCache) Add(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	return c.cache.Add(key, stringify(value), ttl) == nil, nil
}

// Delete removes values from the cache
func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

// Flush removes every value
func (c *MemoryCache) Flush() {
	c.cache.Flush()
}

// Len reports the number of cached items, including expired ones not yet evicted
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// Close releases nothing; it satisfies the cache interface
func (c *MemoryCache) Close() error {
	return nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
