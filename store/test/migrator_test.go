package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/db"
)

func TestMigrationHistory(t *testing.T) {
	ctx := context.Background()
	p := getTestingProfile(t)
	p.Version = "0.1.0"

	dbDriver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	ts := store.New(dbDriver, p, nil)
	t.Cleanup(func() { _ = ts.Close() })

	require.NoError(t, ts.Migrate(ctx))
	history, err := ts.ListMigrationHistory(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0.1.0"}, history)

	// Re-running with the same version records nothing.
	require.NoError(t, ts.Migrate(ctx))
	history, err = ts.ListMigrationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// An upgrade is recorded.
	p.Version = "0.2.0"
	require.NoError(t, ts.Migrate(ctx))
	history, err = ts.ListMigrationHistory(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"0.1.0", "0.2.0"}, history)

	// An older binary only warns.
	p.Version = "0.1.5"
	require.NoError(t, ts.Migrate(ctx))
	history, err = ts.ListMigrationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestMigrationSkipsInvalidVersion(t *testing.T) {
	ctx := context.Background()
	p := getTestingProfile(t)
	p.Version = "development"

	dbDriver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	ts := store.New(dbDriver, p, nil)
	t.Cleanup(func() { _ = ts.Close() })

	require.NoError(t, ts.Migrate(ctx))
	history, err := ts.ListMigrationHistory(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}
