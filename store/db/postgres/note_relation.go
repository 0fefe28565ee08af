package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hrygo/notegraph/store"
)

const uniqueViolation = "23505"

func (d *DB) CreateNoteRelation(ctx context.Context, create *store.NoteRelation) (*store.NoteRelation, error) {
	fields := []string{"uid", "user_id", "source_note_id", "target_note_id", "relation_type", "description", "created_ts"}
	args := []any{
		create.UID,
		create.UserID,
		create.SourceNoteID,
		create.TargetNoteID,
		create.RelationType,
		create.Description,
		create.CreatedTs,
	}

	stmt := `INSERT INTO note_relation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, store.ErrRelationExists
		}
		return nil, fmt.Errorf("failed to create note_relation: %w", err)
	}

	return create, nil
}

func (d *DB) ListNoteRelations(ctx context.Context, find *store.FindNoteRelation) ([]*store.NoteRelation, error) {
	if find == nil {
		return nil, fmt.Errorf("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}

	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.NoteID != nil {
		where = append(where, "(source_note_id = "+placeholder(len(args)+1)+" OR target_note_id = "+placeholder(len(args)+2)+")")
		args = append(args, *find.NoteID, *find.NoteID)
	}
	if find.RelationType != nil {
		where, args = append(where, "relation_type = "+placeholder(len(args)+1)), append(args, *find.RelationType)
	}

	query := `SELECT id, uid, user_id, source_note_id, target_note_id, relation_type, description, created_ts
		FROM note_relation WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list note_relations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.NoteRelation, 0)
	for rows.Next() {
		r := &store.NoteRelation{}
		if err := rows.Scan(
			&r.ID,
			&r.UID,
			&r.UserID,
			&r.SourceNoteID,
			&r.TargetNoteID,
			&r.RelationType,
			&r.Description,
			&r.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan note_relation: %w", err)
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note_relations: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteNoteRelation(ctx context.Context, delete *store.DeleteNoteRelation) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM note_relation WHERE uid = $1 AND user_id = $2`, delete.UID, delete.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete note_relation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete note_relation: %w", err)
	}
	if affected == 0 {
		return store.ErrRelationNotFound
	}
	return nil
}
