package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	notecluster "github.com/hrygo/notegraph/plugin/cluster"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/store"
	teststore "github.com/hrygo/notegraph/store/test"
)

func TestPrintClusters(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t, nil)

	for _, pair := range [][2]string{{"a", "b"}, {"x", "y"}, {"b", "c"}} {
		_, err := ts.CreateNoteRelation(ctx, &store.NoteRelation{UserID: 1, SourceNoteID: pair[0], TargetNoteID: pair[1]})
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, printClusters(ctx, &out, ts, 1, ""))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0\t"+notecluster.PaletteColor(0).Bg+"\ta b c", lines[0])
	assert.Equal(t, "1\t"+notecluster.PaletteColor(1).Bg+"\tx y", lines[1])
	assert.Equal(t, "2 clusters, 5 notes, 3 relations", lines[2])

	out.Reset()
	require.NoError(t, printClusters(ctx, &out, ts, 2, ""))
	assert.Equal(t, "user 2 has no related notes\n", out.String())

	require.Error(t, printClusters(ctx, &out, ts, 1, "not valid ("))
}

func TestPrintToken(t *testing.T) {
	p := &profile.Profile{Secret: "cli-secret"}

	var out bytes.Buffer
	require.NoError(t, printToken(&out, p, 5, time.Hour))

	userID, err := auth.NewAuthenticator("cli-secret").Authenticate(context.Background(), "Bearer "+strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, int32(5), userID)

	require.Error(t, printToken(&out, p, 0, time.Hour))
}
