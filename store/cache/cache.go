// Package cache provides an in-memory TTL cache used by the store to avoid
// repeated lookups of hot rows (users, communities, settings).
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the configuration for a Cache.
type Config struct {
	DefaultTTL      time.Duration // TTL applied by Set; zero means no expiry
	CleanupInterval time.Duration // How often expired items are swept; zero disables the sweeper
	MaxItems        int           // Soft cap on item count; zero means unlimited
	OnEviction      func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Cache is a concurrency-safe in-memory cache with per-item TTL.
type Cache struct {
	config Config
	data   sync.Map
	size   atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a cache and starts its background sweeper when a cleanup
// interval is configured.
func New(config Config) *Cache {
	c := &Cache{
		config: config,
		stop:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.sweep(config.CleanupInterval)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	raw, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	it := raw.(*item)
	if it.expired(time.Now()) {
		c.evict(key, it)
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	it := &item{value: value}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	if _, loaded := c.data.Swap(key, it); !loaded {
		c.size.Add(1)
	}
	if c.config.MaxItems > 0 && c.size.Load() > int64(c.config.MaxItems) {
		c.evictOverflow(key)
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(_ context.Context, key string) {
	if raw, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, raw.(*item).value)
		}
	}
}

// Clear removes all items.
func (c *Cache) Clear(ctx context.Context) {
	c.data.Range(func(key, _ any) bool {
		c.Delete(ctx, key.(string))
		return true
	})
}

// Size returns the current item count.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Close stops the background sweeper. The cache stays usable afterwards but
// expired items are only dropped lazily on Get.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.data.Range(func(key, raw any) bool {
				if raw.(*item).expired(now) {
					c.evict(key.(string), raw.(*item))
				}
				return true
			})
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evict(key string, it *item) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
	}
}

// evictOverflow drops arbitrary items (preferring expired ones) until the
// cache is back under MaxItems. keep is the key that was just written.
func (c *Cache) evictOverflow(keep string) {
	now := time.Now()
	c.data.Range(func(key, raw any) bool {
		if c.size.Load() <= int64(c.config.MaxItems) {
			return false
		}
		k := key.(string)
		if k == keep {
			return true
		}
		it := raw.(*item)
		if it.expired(now) || c.size.Load() > int64(c.config.MaxItems) {
			c.evict(k, it)
		}
		return true
	})
}
