package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/server/auth"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
)

const (
	// RelationClusterServiceName is the fully-qualified name of the cluster service.
	RelationClusterServiceName = "notegraph.api.v1.RelationClusterService"

	// GetNoteClustersProcedure is the full path of RelationClusterService.GetNoteClusters.
	GetNoteClustersProcedure = "/" + RelationClusterServiceName + "/GetNoteClusters"
	// GetNoteClusterColorProcedure is the full path of RelationClusterService.GetNoteClusterColor.
	GetNoteClusterColorProcedure = "/" + RelationClusterServiceName + "/GetNoteClusterColor"
)

// GetNoteClustersRequest asks for the caller's clusters.
type GetNoteClustersRequest struct {
	Filter string `json:"filter"`
}

// GetNoteClusterColorRequest asks for the color of one note.
type GetNoteClusterColorRequest struct {
	NoteID string `json:"note_id"`
}

// jsonCodec lets Connect carry plain Go structs as JSON.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// ConnectServiceHandler serves the cluster API over the Connect protocol.
type ConnectServiceHandler struct {
	*APIV1Service
}

// NewConnectServiceHandler creates a new Connect service handler.
func NewConnectServiceHandler(svc *APIV1Service) *ConnectServiceHandler {
	return &ConnectServiceHandler{APIV1Service: svc}
}

// RegisterConnectHandlers registers all Connect service handlers on the given mux.
func (s *ConnectServiceHandler) RegisterConnectHandlers(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux.Handle(GetNoteClustersProcedure, connect.NewUnaryHandler(GetNoteClustersProcedure, s.GetNoteClusters, opts...))
	mux.Handle(GetNoteClusterColorProcedure, connect.NewUnaryHandler(GetNoteClusterColorProcedure, s.GetNoteClusterColor, opts...))
}

func (s *ConnectServiceHandler) GetNoteClusters(ctx context.Context, req *connect.Request[GetNoteClustersRequest]) (*connect.Response[NoteClustersResponse], error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}

	result, err := s.ClusterService.Compute(ctx, userID, strings.TrimSpace(req.Msg.Filter))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(newNoteClustersResponse(result)), nil
}

func (s *ConnectServiceHandler) GetNoteClusterColor(ctx context.Context, req *connect.Request[GetNoteClusterColorRequest]) (*connect.Response[NoteClusterColorResponse], error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	if req.Msg.NoteID == "" {
		return nil, toConnectError(apierrors.InvalidArgument("note_id is required", nil))
	}

	color, found, err := s.ClusterService.ColorFor(ctx, userID, req.Msg.NoteID)
	if err != nil {
		return nil, toConnectError(err)
	}
	resp := &NoteClusterColorResponse{NoteID: req.Msg.NoteID}
	if found {
		resp.Color = &color
	}
	return connect.NewResponse(resp), nil
}
