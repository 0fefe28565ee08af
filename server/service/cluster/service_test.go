package cluster

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notecluster "github.com/hrygo/notegraph/plugin/cluster"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
	teststore "github.com/hrygo/notegraph/store/test"
)

// fakeRelationStore serves a fixed relation list per user.
type fakeRelationStore struct {
	relations map[int32][]*store.NoteRelation
	err       error
	calls     atomic.Int32

	started chan struct{}
	release chan struct{}
}

func (f *fakeRelationStore) ListNoteRelations(_ context.Context, find *store.FindNoteRelation) ([]*store.NoteRelation, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.relations[*find.UserID], nil
}

func rel(source, target, relationType string) *store.NoteRelation {
	return &store.NoteRelation{SourceNoteID: source, TargetNoteID: target, RelationType: relationType}
}

func TestCompute(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRelationStore{relations: map[int32][]*store.NoteRelation{
		1: {
			rel("a", "b", "related"),
			rel("b", "c", "reference"),
			rel("x", "y", "related"),
		},
	}}
	svc := NewService(fake)

	result, err := svc.Compute(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, notecluster.Map{"a": 0, "b": 0, "c": 0, "x": 1, "y": 1}, result.Clusters)
	assert.Equal(t, 2, result.ClusterCount)
	assert.Equal(t, 5, result.NoteCount)
	assert.Equal(t, 3, result.EdgeCount)
	assert.False(t, result.Degraded)

	groups := result.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b", "c"}, groups[0].NoteIDs)
	assert.Equal(t, notecluster.PaletteColor(1), groups[1].Color)

	// Other users see nothing.
	other, err := svc.Compute(ctx, 2, "")
	require.NoError(t, err)
	assert.Empty(t, other.Clusters)
	assert.Equal(t, 0, other.ClusterCount)
}

func TestComputeWithFilter(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRelationStore{relations: map[int32][]*store.NoteRelation{
		1: {
			rel("a", "b", "related"),
			rel("b", "c", "reference"),
		},
	}}
	svc := NewService(fake)

	result, err := svc.Compute(ctx, 1, `relation_type == "related"`)
	require.NoError(t, err)
	assert.Equal(t, notecluster.Map{"a": 0, "b": 0}, result.Clusters)
	assert.Equal(t, 1, result.EdgeCount)

	_, err = svc.Compute(ctx, 1, `relation_type ==`)
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeInvalidArgument))

	_, err = svc.Compute(ctx, 1, `created_ts + 1`)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeInvalidArgument), "non-bool filters are rejected")
}

func TestComputeRejectsMissingUser(t *testing.T) {
	svc := NewService(&fakeRelationStore{})
	_, err := svc.Compute(context.Background(), 0, "")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeInvalidArgument))
}

func TestComputeFetchFailureYieldsEmptyResult(t *testing.T) {
	svc := NewService(&fakeRelationStore{err: errors.New("database is locked")})

	result, err := svc.Compute(context.Background(), 1, "")
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.NotNil(t, result.Clusters)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Groups())

	_, ok := result.ColorFor("a")
	assert.False(t, ok)
}

func TestComputeSharesConcurrentRequests(t *testing.T) {
	fake := &fakeRelationStore{
		relations: map[int32][]*store.NoteRelation{1: {rel("a", "b", "related")}},
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	svc := NewService(fake)

	const callers = 5
	results := make([]*Result, callers)
	var wg sync.WaitGroup
	run := func(i int) {
		defer wg.Done()
		r, err := svc.Compute(context.Background(), 1, "")
		assert.NoError(t, err)
		results[i] = r
	}

	wg.Add(1)
	go run(0)
	<-fake.started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go run(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(fake.release)
	wg.Wait()

	assert.Equal(t, int32(1), fake.calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, notecluster.Map{"a": 0, "b": 0}, r.Clusters)
	}

	// Shared results do not alias each other.
	results[0].Clusters["z"] = 9
	assert.NotContains(t, results[1].Clusters, "z")
}

func TestServiceColorFor(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRelationStore{relations: map[int32][]*store.NoteRelation{
		1: {rel("a", "b", "related"), rel("c", "d", "related")},
	}}
	svc := NewService(fake)

	color, ok, err := svc.ColorFor(ctx, 1, "d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, notecluster.PaletteColor(1), color)

	_, ok, err = svc.ColorFor(ctx, 1, "lonely")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComputeWithStore(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t, nil)

	for _, pair := range [][2]string{{"n1", "n2"}, {"n3", "n4"}, {"n2", "n3"}} {
		_, err := ts.CreateNoteRelation(ctx, &store.NoteRelation{UserID: 1, SourceNoteID: pair[0], TargetNoteID: pair[1]})
		require.NoError(t, err)
	}
	_, err := ts.CreateNoteRelation(ctx, &store.NoteRelation{UserID: 2, SourceNoteID: "n1", TargetNoteID: "n9"})
	require.NoError(t, err)

	svc := NewService(ts)
	result, err := svc.Compute(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ClusterCount)
	assert.Equal(t, 4, result.NoteCount)
	assert.NotContains(t, result.Clusters, "n9")
}
