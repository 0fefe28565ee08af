package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/internal/version"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/cache"
	"github.com/hrygo/notegraph/store/db"
)

// NewTestingStore creates a migrated store for the driver named by DRIVER
// (sqlite by default). l2 may be nil.
func NewTestingStore(ctx context.Context, t *testing.T, l2 cache.RedisCacheInterface) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, p, l2)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()

	dir := t.TempDir()
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:             "dev",
		Port:             getUnusedPort(),
		Data:             dir,
		Driver:           driver,
		Version:          version.GetCurrentVersion("dev"),
		RelationCacheTTL: time.Minute,
	}

	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(dir, fmt.Sprintf("notegraph_%d.db", time.Now().UnixNano()))
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		t.Fatalf("unsupported driver %q", driver)
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

func getUnusedPort() int {
	return 20000 + int(time.Now().UnixNano()%10000)
}
