package store

import (
	"sync"
	"sync/atomic"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// relationCache holds each user's full relation list for a short TTL.
	relationCache *cache.TieredCache[[]*NoteRelation]
	// relationGen counts relation writes per user (int32 -> *atomic.Uint64).
	relationGen sync.Map
}

// New creates a new instance of Store. l2 may be nil to run with the memory cache only.
func New(driver Driver, profile *profile.Profile, l2 cache.RedisCacheInterface) *Store {
	ttl := profile.RelationCacheTTL
	cacheConfig := &cache.TieredCacheConfig{
		L1MaxItems: 1000,
		TTL:        ttl,
		EnableL1:   ttl > 0,
		L2:         l2,
	}
	if ttl <= 0 {
		// Caching disabled.
		cacheConfig.L2 = nil
	}

	return &Store{
		driver:        driver,
		profile:       profile,
		relationCache: cache.NewTieredCache[[]*NoteRelation](cacheConfig),
	}
}

func (s *Store) relationGeneration(userID int32) *atomic.Uint64 {
	gen, _ := s.relationGen.LoadOrStore(userID, new(atomic.Uint64))
	return gen.(*atomic.Uint64)
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// CacheStats reports relation cache statistics.
func (s *Store) CacheStats() map[string]any {
	return s.relationCache.Stats()
}

func (s *Store) Close() error {
	if err := s.relationCache.Close(); err != nil {
		return err
	}
	return s.driver.Close()
}
