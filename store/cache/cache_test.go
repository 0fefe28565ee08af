package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	value, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "a", 2)
	value, _ = c.Get(ctx, "a")
	assert.Equal(t, 2, value)
	assert.Equal(t, int64(1), c.Size())
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	var mu sync.Mutex
	c := New(Config{OnEviction: func(key string, _ any) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	}})
	defer c.Close()

	c.SetWithTTL(ctx, "short", "v", 10*time.Millisecond)
	c.SetWithTTL(ctx, "forever", "v", 0)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Size())

	mu.Lock()
	assert.Equal(t, []string{"short"}, evicted)
	mu.Unlock()
}

func TestCacheCleanupLoop(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: 5 * time.Millisecond, CleanupInterval: 5 * time.Millisecond})
	defer c.Close()

	c.Set(ctx, "a", 1)
	require.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCacheMaxItems(t *testing.T) {
	ctx := context.Background()
	c := New(Config{MaxItems: 2})
	defer c.Close()

	c.Set(ctx, "a", 1)
	time.Sleep(time.Millisecond)
	c.Set(ctx, "b", 2)
	time.Sleep(time.Millisecond)
	c.Set(ctx, "c", 3)

	assert.Equal(t, int64(2), c.Size())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), i)
	}
	c.Delete(ctx, "k0")
	c.Delete(ctx, "k0")
	assert.Equal(t, int64(4), c.Size())

	c.Clear(ctx)
	assert.Equal(t, int64(0), c.Size())
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	c := New(Config{CleanupInterval: time.Millisecond})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
