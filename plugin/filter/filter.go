// Package filter evaluates CEL expressions against note relations.
package filter

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

// RelationFilter is a compiled boolean CEL expression over a note relation.
//
// Available variables:
//   - source_note_id, target_note_id, relation_type, description (string)
//   - created_ts (int)
//
// Example: relation_type == "reference" && created_ts > 1700000000
type RelationFilter struct {
	expr    string
	program cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("source_note_id", cel.StringType),
		cel.Variable("target_note_id", cel.StringType),
		cel.Variable("relation_type", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("created_ts", cel.IntType),
	)
}

// Compile parses and type-checks expr. The expression must yield a bool.
func Compile(expr string) (*RelationFilter, error) {
	env, err := newEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build filter program %q", expr)
	}
	return &RelationFilter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *RelationFilter) String() string {
	return f.expr
}

// Match reports whether rel satisfies the filter. Evaluation errors are a non-match.
func (f *RelationFilter) Match(rel *store.NoteRelation) bool {
	if rel == nil {
		return false
	}
	out, _, err := f.program.Eval(map[string]any{
		"source_note_id": rel.SourceNoteID,
		"target_note_id": rel.TargetNoteID,
		"relation_type":  rel.RelationType,
		"description":    rel.Description,
		"created_ts":     rel.CreatedTs,
	})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// Apply returns the relations matching f. A nil filter keeps everything.
func (f *RelationFilter) Apply(relations []*store.NoteRelation) []*store.NoteRelation {
	if f == nil {
		return relations
	}
	filtered := make([]*store.NoteRelation, 0, len(relations))
	for _, rel := range relations {
		if f.Match(rel) {
			filtered = append(filtered, rel)
		}
	}
	return filtered
}
