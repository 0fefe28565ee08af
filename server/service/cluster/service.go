// Package cluster computes per-user note clusters from stored relations.
package cluster

import (
	"context"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	notecluster "github.com/hrygo/notegraph/plugin/cluster"
	"github.com/hrygo/notegraph/plugin/filter"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
	"github.com/hrygo/notegraph/store"
)

// RelationStore is the relation source used by the service.
type RelationStore interface {
	ListNoteRelations(ctx context.Context, find *store.FindNoteRelation) ([]*store.NoteRelation, error)
}

// Result is the outcome of one cluster computation.
type Result struct {
	Clusters     notecluster.Map `json:"clusters"`
	ClusterCount int             `json:"cluster_count"`
	NoteCount    int             `json:"note_count"`
	EdgeCount    int             `json:"edge_count"`
	BuildMs      int64           `json:"build_ms"`
	// Degraded is set when relations could not be loaded and the result is empty.
	Degraded bool `json:"degraded"`
}

// Groups lists the members of each cluster with its palette color.
func (r *Result) Groups() []notecluster.Group {
	return notecluster.Groups(r.Clusters)
}

// ColorFor returns the color of noteID, or false when it belongs to no cluster.
func (r *Result) ColorFor(noteID string) (notecluster.Color, bool) {
	return notecluster.ColorFor(noteID, r.Clusters)
}

// Service computes note clusters.
type Service struct {
	store RelationStore
	group singleflight.Group
}

// NewService creates a cluster service reading relations from s.
func NewService(s RelationStore) *Service {
	return &Service{store: s}
}

// Compute builds the clusters of userID's relations, optionally narrowed by a CEL
// filter expression. Identical concurrent requests share one computation. A relation
// fetch failure is logged and yields an empty, degraded result.
func (s *Service) Compute(ctx context.Context, userID int32, filterExpr string) (*Result, error) {
	if userID <= 0 {
		return nil, apierrors.InvalidArgument("user id is required", nil)
	}

	var relFilter *filter.RelationFilter
	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return nil, apierrors.InvalidArgument("invalid relation filter", err)
		}
		relFilter = f
	}

	key := strconv.Itoa(int(userID)) + "|" + filterExpr
	v, _, shared := s.group.Do(key, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), userID, relFilter), nil
	})

	result := v.(*Result)
	if shared {
		// Each caller owns its map.
		copied := *result
		copied.Clusters = maps.Clone(result.Clusters)
		return &copied, nil
	}
	return result, nil
}

func (s *Service) compute(ctx context.Context, userID int32, relFilter *filter.RelationFilter) *Result {
	logger := observability.LoggerFromContext(ctx)

	relations, err := s.store.ListNoteRelations(ctx, &store.FindNoteRelation{UserID: &userID})
	if err != nil {
		logger.Warn("failed to load note relations, returning no clusters",
			slog.Int64(observability.LogFieldUserID, int64(userID)),
			slog.String("error", err.Error()),
		)
		return &Result{Clusters: notecluster.Map{}, Degraded: true}
	}

	relations = relFilter.Apply(relations)

	start := time.Now()
	clusters := notecluster.BuildRelationClusters(relations)
	buildMs := time.Since(start).Milliseconds()

	result := &Result{
		Clusters:     clusters,
		ClusterCount: clusters.Count(),
		NoteCount:    len(clusters),
		EdgeCount:    len(relations),
		BuildMs:      buildMs,
	}
	logger.Debug("note clusters built",
		slog.Int64(observability.LogFieldUserID, int64(userID)),
		slog.Int(observability.LogFieldEdgeCount, result.EdgeCount),
		slog.Int(observability.LogFieldClusterCount, result.ClusterCount),
	)
	return result
}

// ColorFor returns the cluster color of noteID for userID.
func (s *Service) ColorFor(ctx context.Context, userID int32, noteID string) (notecluster.Color, bool, error) {
	result, err := s.Compute(ctx, userID, "")
	if err != nil {
		return notecluster.Color{}, false, err
	}
	color, ok := result.ColorFor(noteID)
	return color, ok, nil
}
