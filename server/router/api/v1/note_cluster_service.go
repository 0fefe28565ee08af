package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	notecluster "github.com/hrygo/notegraph/plugin/cluster"
	"github.com/hrygo/notegraph/server/auth"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/service/cluster"
)

// ClusterStats summarises a cluster computation.
type ClusterStats struct {
	ClusterCount int   `json:"cluster_count"`
	NoteCount    int   `json:"note_count"`
	EdgeCount    int   `json:"edge_count"`
	BuildMs      int64 `json:"build_ms"`
	Degraded     bool  `json:"degraded"`
}

// NoteClustersResponse is the body of GET /api/v1/note-clusters.
type NoteClustersResponse struct {
	Clusters notecluster.Map     `json:"clusters"`
	Groups   []notecluster.Group `json:"groups"`
	Stats    ClusterStats        `json:"stats"`
}

// NoteClusterColorResponse is the body of GET /api/v1/notes/:note/cluster-color.
// Color is null for notes without relations.
type NoteClusterColorResponse struct {
	NoteID string             `json:"note_id"`
	Color  *notecluster.Color `json:"color"`
}

func newNoteClustersResponse(result *cluster.Result) *NoteClustersResponse {
	return &NoteClustersResponse{
		Clusters: result.Clusters,
		Groups:   result.Groups(),
		Stats: ClusterStats{
			ClusterCount: result.ClusterCount,
			NoteCount:    result.NoteCount,
			EdgeCount:    result.EdgeCount,
			BuildMs:      result.BuildMs,
			Degraded:     result.Degraded,
		},
	}
}

// ListNoteClusters returns the clusters of the caller's notes.
// GET /api/v1/note-clusters?filter=<cel expression>
func (s *APIV1Service) ListNoteClusters(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return writeError(c, apierrors.Unauthorized("authentication required"))
	}

	result, err := s.ClusterService.Compute(ctx, userID, strings.TrimSpace(c.QueryParam("filter")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newNoteClustersResponse(result))
}

// GetNoteClusterColor returns the cluster color of a single note.
// GET /api/v1/notes/:note/cluster-color
func (s *APIV1Service) GetNoteClusterColor(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return writeError(c, apierrors.Unauthorized("authentication required"))
	}

	noteID := c.Param("note")
	if noteID == "" {
		return writeError(c, apierrors.InvalidArgument("note id is required", nil))
	}

	color, found, err := s.ClusterService.ColorFor(ctx, userID, noteID)
	if err != nil {
		return writeError(c, err)
	}
	resp := &NoteClusterColorResponse{NoteID: noteID}
	if found {
		resp.Color = &color
	}
	return c.JSON(http.StatusOK, resp)
}
