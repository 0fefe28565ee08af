package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TieredCache implements a three-tier caching strategy:
// - L1: In-memory cache (fast, small, DEFAULT)
// - L2: Redis cache (moderate, shared, OPTIONAL)
// - L3: Fetcher callback (slow, persistent)
//
// DEFAULT BEHAVIOR (single instance):
//   - L1 memory cache enabled
//   - L2 Redis disabled
//
// TO ENABLE REDIS (multi-instance):
//   - Set NOTEGRAPH_CACHE_REDIS_ADDR
type TieredCache[T any] struct {
	l1        *Cache
	l2        RedisCacheInterface
	l1Enabled bool
	l2Enabled bool
	ttl       time.Duration
}

// Fetcher loads a value from the backing source (L3).
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

// TieredCacheConfig holds the configuration for the tiered cache.
type TieredCacheConfig struct {
	L1MaxItems int                 // Max items in L1 memory cache
	TTL        time.Duration       // TTL for L1 and L2 entries
	EnableL1   bool                // Enable L1 memory cache (default: true)
	L2         RedisCacheInterface // Optional L2; nil disables it
}

// DefaultTieredConfig returns the default tiered cache configuration.
func DefaultTieredConfig() *TieredCacheConfig {
	return &TieredCacheConfig{
		L1MaxItems: 1000,
		TTL:        30 * time.Second,
		EnableL1:   true,
	}
}

// NewTieredCache creates a new three-tier cache.
func NewTieredCache[T any](config *TieredCacheConfig) *TieredCache[T] {
	if config == nil {
		config = DefaultTieredConfig()
	}

	tc := &TieredCache[T]{
		l1Enabled: config.EnableL1,
		ttl:       config.TTL,
	}

	if config.EnableL1 {
		cleanup := time.Minute
		if config.TTL > 0 && config.TTL < cleanup {
			cleanup = config.TTL
		}
		tc.l1 = New(Config{
			DefaultTTL:      config.TTL,
			CleanupInterval: cleanup,
			MaxItems:        config.L1MaxItems,
		})
	}

	if config.L2 != nil {
		tc.l2 = config.L2
		tc.l2Enabled = true
	}

	return tc
}

// Get retrieves a value from the cache, checking L1, then L2, then the fetcher.
// Fetcher errors are returned and nothing is cached.
func (t *TieredCache[T]) Get(ctx context.Context, key string, fetcher Fetcher[T]) (T, error) {
	if value, ok := t.Peek(ctx, key); ok {
		return value, nil
	}

	var zero T
	if fetcher == nil {
		return zero, errors.Errorf("cache miss for %q and no fetcher", key)
	}

	value, err := fetcher(ctx, key)
	if err != nil {
		return zero, err
	}
	t.Set(ctx, key, value)
	return value, nil
}

// Peek checks L1 then L2 without touching the backing source.
func (t *TieredCache[T]) Peek(ctx context.Context, key string) (T, bool) {
	var zero T

	if t.l1Enabled && t.l1 != nil {
		if raw, found := t.l1.Get(ctx, key); found {
			if value, ok := raw.(T); ok {
				return value, true
			}
		}
	}

	if t.l2Enabled && t.l2 != nil {
		var value T
		if t.l2.Get(ctx, key, &value) {
			// Promote to L1
			if t.l1Enabled && t.l1 != nil {
				t.l1.Set(ctx, key, value)
			}
			return value, true
		}
	}

	return zero, false
}

// Set stores a value in both L1 and L2.
func (t *TieredCache[T]) Set(ctx context.Context, key string, value T) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Set(ctx, key, value)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.SetWithTTL(ctx, key, value, t.ttl)
	}
}

// Delete removes a value from both L1 and L2.
func (t *TieredCache[T]) Delete(ctx context.Context, key string) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Delete(ctx, key)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.Delete(ctx, key)
	}
}

// Clear clears all caches.
func (t *TieredCache[T]) Clear(ctx context.Context) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Clear(ctx)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.Clear(ctx)
	}
}

// Stats returns cache statistics.
func (t *TieredCache[T]) Stats() map[string]any {
	stats := map[string]any{
		"l1_enabled": t.l1Enabled && t.l1 != nil,
		"l2_enabled": t.l2Enabled && t.l2 != nil,
	}
	if t.l1Enabled && t.l1 != nil {
		stats["l1_size"] = t.l1.Size()
	}
	return stats
}

// Close closes all cache connections.
func (t *TieredCache[T]) Close() error {
	var errs []error

	if t.l2 != nil {
		if err := t.l2.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if t.l1 != nil {
		if err := t.l1.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("multiple errors: %v", errs)
	}

	return nil
}
