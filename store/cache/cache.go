package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the in-memory cache configuration.
type Config struct {
	// DefaultTTL is used by Set. Zero means entries never expire.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero disables the sweeper.
	CleanupInterval time.Duration
	// MaxItems bounds the number of entries. Zero means unbounded.
	MaxItems int
	// OnEviction is called for entries removed by expiry or capacity.
	OnEviction func(key string, value any)
}

type item struct {
	value      any
	expiration time.Time
	createdAt  time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// Cache is a concurrent in-memory TTL cache.
type Cache struct {
	data      sync.Map
	config    Config
	itemCount atomic.Int64

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new memory cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	c := &Cache{
		config:   config,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	} else {
		close(c.done)
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	now := time.Now()
	entry := &item{value: value, createdAt: now}
	if ttl > 0 {
		entry.expiration = now.Add(ttl)
	}

	if _, loaded := c.data.Swap(key, entry); !loaded {
		if c.itemCount.Add(1) > int64(c.config.MaxItems) && c.config.MaxItems > 0 {
			c.evictOldest(key)
		}
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	raw, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	entry := raw.(*item)
	if entry.expired(time.Now()) {
		c.remove(key, entry, true)
		return nil, false
	}
	return entry.value, true
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.itemCount.Add(-1)
	}
}

// Clear removes every entry.
func (c *Cache) Clear(_ context.Context) {
	c.data.Range(func(key, _ any) bool {
		if _, loaded := c.data.LoadAndDelete(key); loaded {
			c.itemCount.Add(-1)
		}
		return true
	})
}

// Size returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Size() int64 {
	return c.itemCount.Load()
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	<-c.done
	return nil
}

func (c *Cache) remove(key string, entry *item, notify bool) {
	if c.data.CompareAndDelete(key, entry) {
		c.itemCount.Add(-1)
		if notify && c.config.OnEviction != nil {
			c.config.OnEviction(key, entry.value)
		}
	}
}

// evictOldest drops the oldest entry other than keep.
func (c *Cache) evictOldest(keep string) {
	var (
		oldestKey   string
		oldestEntry *item
	)
	c.data.Range(func(k, v any) bool {
		key, entry := k.(string), v.(*item)
		if key == keep {
			return true
		}
		if oldestEntry == nil || entry.createdAt.Before(oldestEntry.createdAt) {
			oldestKey, oldestEntry = key, entry
		}
		return true
	})
	if oldestEntry != nil {
		c.remove(oldestKey, oldestEntry, true)
	}
}

func (c *Cache) cleanupLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	now := time.Now()
	c.data.Range(func(k, v any) bool {
		entry := v.(*item)
		if entry.expired(now) {
			c.remove(k.(string), entry, true)
		}
		return true
	})
}
