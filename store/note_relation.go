package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/plugin/cluster"
	"github.com/hrygo/notegraph/store/cache"
)

// DefaultRelationType is used when a relation is created without a type.
const DefaultRelationType = "related"

var (
	// ErrInvalidRelation is returned for relations with missing or identical endpoints.
	ErrInvalidRelation = errors.New("invalid note relation")
	// ErrRelationExists is returned when the same source/target pair already exists for a user.
	ErrRelationExists = errors.New("note relation already exists")
	// ErrRelationNotFound is returned when deleting a relation that does not exist.
	ErrRelationNotFound = errors.New("note relation not found")
)

// NoteRelation links two notes owned by the same user.
type NoteRelation struct {
	ID           int32  `json:"id"`
	UID          string `json:"uid"`
	UserID       int32  `json:"user_id"`
	SourceNoteID string `json:"source_note_id"`
	TargetNoteID string `json:"target_note_id"`
	RelationType string `json:"relation_type"`
	Description  string `json:"description"`
	CreatedTs    int64  `json:"created_ts"`
}

// Source implements cluster.Edge. A nil relation has no endpoints.
func (r *NoteRelation) Source() string {
	if r == nil {
		return ""
	}
	return r.SourceNoteID
}

// Target implements cluster.Edge.
func (r *NoteRelation) Target() string {
	if r == nil {
		return ""
	}
	return r.TargetNoteID
}

var _ cluster.Edge = (*NoteRelation)(nil)

// FindNoteRelation specifies the conditions for finding note relations.
type FindNoteRelation struct {
	UID          *string
	UserID       *int32
	NoteID       *string // matches either endpoint
	RelationType *string
}

// DeleteNoteRelation specifies the conditions for deleting a note relation.
type DeleteNoteRelation struct {
	UID    string
	UserID int32
}

func relationCacheKey(userID int32) string {
	return cache.GenerateCacheKey("note_relations", "user", strconv.Itoa(int(userID)))
}

// isUserScoped reports whether find asks for every relation of a single user,
// the only query shape served from cache.
func (find *FindNoteRelation) isUserScoped() bool {
	return find.UserID != nil && find.UID == nil && find.NoteID == nil && find.RelationType == nil
}

func (s *Store) CreateNoteRelation(ctx context.Context, create *NoteRelation) (*NoteRelation, error) {
	create.SourceNoteID = strings.TrimSpace(create.SourceNoteID)
	create.TargetNoteID = strings.TrimSpace(create.TargetNoteID)
	if create.SourceNoteID == "" || create.TargetNoteID == "" {
		return nil, errors.Wrap(ErrInvalidRelation, "source and target notes are required")
	}
	if create.SourceNoteID == create.TargetNoteID {
		return nil, errors.Wrap(ErrInvalidRelation, "a note cannot relate to itself")
	}
	if create.RelationType == "" {
		create.RelationType = DefaultRelationType
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	relation, err := s.driver.CreateNoteRelation(ctx, create)
	if err != nil {
		return nil, err
	}
	s.invalidateRelations(ctx, create.UserID)
	return relation, nil
}

// ListNoteRelations returns relations matching find. Listing every relation of a user
// is served from the relation cache for a short TTL.
func (s *Store) ListNoteRelations(ctx context.Context, find *FindNoteRelation) ([]*NoteRelation, error) {
	if find == nil {
		find = &FindNoteRelation{}
	}
	if !find.isUserScoped() {
		return s.driver.ListNoteRelations(ctx, find)
	}

	key := relationCacheKey(*find.UserID)
	if list, ok := s.relationCache.Peek(ctx, key); ok {
		return list, nil
	}

	gen := s.relationGeneration(*find.UserID)
	before := gen.Load()
	list, err := s.driver.ListNoteRelations(ctx, find)
	if err != nil {
		return nil, err
	}
	// A write that landed during the read may not be in list.
	if gen.Load() == before {
		s.relationCache.Set(ctx, key, list)
	}
	return list, nil
}

func (s *Store) GetNoteRelation(ctx context.Context, find *FindNoteRelation) (*NoteRelation, error) {
	list, err := s.driver.ListNoteRelations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteNoteRelation(ctx context.Context, delete *DeleteNoteRelation) error {
	if err := s.driver.DeleteNoteRelation(ctx, delete); err != nil {
		return err
	}
	s.invalidateRelations(ctx, delete.UserID)
	return nil
}

// invalidateRelations drops the cached list of userID. The generation bump
// comes first so a read that started before the write never repopulates it.
func (s *Store) invalidateRelations(ctx context.Context, userID int32) {
	s.relationGeneration(userID).Add(1)
	s.relationCache.Delete(ctx, relationCacheKey(userID))
}
