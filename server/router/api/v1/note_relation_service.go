package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/server/auth"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

// CreateNoteRelationRequest is the body of POST /api/v1/note-relations.
type CreateNoteRelationRequest struct {
	SourceNoteID string `json:"source_note_id" validate:"required,max=256,nefield=TargetNoteID"`
	TargetNoteID string `json:"target_note_id" validate:"required,max=256"`
	RelationType string `json:"relation_type" validate:"omitempty,max=64,printascii"`
	Description  string `json:"description" validate:"max=1024"`
}

// ListNoteRelationsResponse is the body of GET /api/v1/note-relations.
type ListNoteRelationsResponse struct {
	Relations []*store.NoteRelation `json:"relations"`
}

// ListNoteRelations lists the caller's relations, optionally those touching one note.
// GET /api/v1/note-relations?note=<note id>
func (s *APIV1Service) ListNoteRelations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return writeError(c, apierrors.Unauthorized("authentication required"))
	}

	find := &store.FindNoteRelation{UserID: &userID}
	if note := strings.TrimSpace(c.QueryParam("note")); note != "" {
		find.NoteID = &note
	}
	relations, err := s.Store.ListNoteRelations(ctx, find)
	if err != nil {
		return writeError(c, err)
	}
	if relations == nil {
		relations = []*store.NoteRelation{}
	}
	return c.JSON(http.StatusOK, &ListNoteRelationsResponse{Relations: relations})
}

// CreateNoteRelation links two of the caller's notes.
// POST /api/v1/note-relations
func (s *APIV1Service) CreateNoteRelation(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return writeError(c, apierrors.Unauthorized("authentication required"))
	}

	request := &CreateNoteRelationRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apierrors.InvalidArgument("malformed request body", err))
	}
	request.SourceNoteID = strings.TrimSpace(request.SourceNoteID)
	request.TargetNoteID = strings.TrimSpace(request.TargetNoteID)
	if err := validateStruct(request); err != nil {
		return writeError(c, apierrors.InvalidArgument(err.Error(), err))
	}

	relation, err := s.Store.CreateNoteRelation(ctx, &store.NoteRelation{
		UserID:       userID,
		SourceNoteID: request.SourceNoteID,
		TargetNoteID: request.TargetNoteID,
		RelationType: request.RelationType,
		Description:  request.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, relation)
}

// DeleteNoteRelation removes one of the caller's relations.
// DELETE /api/v1/note-relations/:uid
func (s *APIV1Service) DeleteNoteRelation(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return writeError(c, apierrors.Unauthorized("authentication required"))
	}

	if err := s.Store.DeleteNoteRelation(ctx, &store.DeleteNoteRelation{
		UID:    c.Param("uid"),
		UserID: userID,
	}); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
