package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fraatlas/backend/pkg/domain"
)

// Layered checks an in-process cache before a shared remote one. The
// remote layer is optional.
type Layered struct {
	memory    *MemoryCache
	remote    domain.CacheRepository
	memoryTTL time.Duration
}

// NewLayered creates a layered cache. remote may be nil.
func NewLayered(memoryTTL time.Duration, remote domain.CacheRepository) *Layered {
	return &Layered{
		memory:    NewMemoryCache(memoryTTL, 10*time.Minute),
		remote:    remote,
		memoryTTL: memoryTTL,
	}
}

// Get retrieves a value, checking memory first and promoting remote hits
func (c *Layered) Get(ctx context.Context, key string) (string, error) {
	if val, err := c.memory.Get(ctx, key); err == nil {
		return val, nil
	}
	if c.remote == nil {
		return "", ErrMiss
	}

	val, err := c.remote.Get(ctx, key)
	if err != nil {
		return "", err
	}
	c.memory.Set(ctx, key, val, c.memoryTTL)
	return val, nil
}

// Set stores a value in both layers. The memory copy never outlives ttl.
func (c *Layered) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	memTTL := c.memoryTTL
	if ttl > 0 && ttl < memTTL {
		memTTL = ttl
	}
	c.memory.Set(ctx, key, value, memTTL)

	if c.remote == nil {
		return nil
	}
	return c.remote.Set(ctx, key, stringify(value), ttl)
}

// Add stores a value unless the key exists. With a remote layer the remote
// decides, since other processes share it.
func (c *Layered) Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	memTTL := c.memoryTTL
	if ttl > 0 && ttl < memTTL {
		memTTL = ttl
	}
	if c.remote == nil {
		return c.memory.Add(ctx, key, value, memTTL)
	}

	added, err := c.remote.Add(ctx, key, stringify(value), ttl)
	if err != nil || !added {
		return false, err
	}
	c.memory.Set(ctx, key, value, memTTL)
	return true, nil
}

// Delete removes keys from both layers
func (c *Layered) Delete(ctx context.Context, keys ...string) error {
	c.memory.Delete(ctx, keys...)
	if c.remote == nil {
		return nil
	}
	return c.remote.Delete(ctx, keys...)
}

// Close closes the remote layer
func (c *Layered) Close() error {
	c.memory.Flush()
	if c.remote == nil {
		return nil
	}
	return c.remote.Close()
}

// IsMiss reports whether err means the key was not cached
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
