package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "equality", expr: `relation_type == "reference"`},
		{name: "compound", expr: `relation_type == "reference" && created_ts > 10`},
		{name: "string function", expr: `description.contains("draft")`},
		{name: "syntax error", expr: `relation_type ==`, wantErr: true},
		{name: "unknown variable", expr: `owner == "me"`, wantErr: true},
		{name: "non bool", expr: `relation_type`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())
		})
	}
}

func TestApply(t *testing.T) {
	relations := []*store.NoteRelation{
		{SourceNoteID: "a", TargetNoteID: "b", RelationType: "reference", CreatedTs: 100},
		{SourceNoteID: "b", TargetNoteID: "c", RelationType: store.DefaultRelationType, CreatedTs: 200},
		{SourceNoteID: "c", TargetNoteID: "d", RelationType: "reference", CreatedTs: 300, Description: "draft link"},
	}

	f, err := Compile(`relation_type == "reference"`)
	require.NoError(t, err)
	got := f.Apply(relations)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SourceNoteID)
	assert.Equal(t, "c", got[1].SourceNoteID)

	f, err = Compile(`created_ts >= 200 && !description.contains("draft")`)
	require.NoError(t, err)
	got = f.Apply(relations)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].SourceNoteID)

	var none *RelationFilter
	assert.Len(t, none.Apply(relations), 3)
	assert.False(t, f.Match(nil))
}
