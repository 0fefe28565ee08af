package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// NoteRelation model related methods.
	CreateNoteRelation(ctx context.Context, create *NoteRelation) (*NoteRelation, error)
	ListNoteRelations(ctx context.Context, find *FindNoteRelation) ([]*NoteRelation, error)
	DeleteNoteRelation(ctx context.Context, delete *DeleteNoteRelation) error
}
