package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/service/cluster"
	"github.com/hrygo/notegraph/store"
)

// printClusters writes one line per cluster: index, color, then member note ids.
func printClusters(ctx context.Context, w io.Writer, s *store.Store, userID int32, filterExpr string) error {
	result, err := cluster.NewService(s).Compute(ctx, userID, filterExpr)
	if err != nil {
		return err
	}
	if result.Degraded {
		return errors.New("failed to load note relations")
	}

	groups := result.Groups()
	if len(groups) == 0 {
		fmt.Fprintf(w, "user %d has no related notes\n", userID)
		return nil
	}
	for _, group := range groups {
		fmt.Fprintf(w, "%d\t%s\t%s\n", group.Index, group.Color.Bg, strings.Join(group.NoteIDs, " "))
	}
	fmt.Fprintf(w, "%d clusters, %d notes, %d relations\n", result.ClusterCount, result.NoteCount, result.EdgeCount)
	return nil
}

func printToken(w io.Writer, instanceProfile *profile.Profile, userID int32, ttl time.Duration) error {
	if userID <= 0 {
		return errors.New("user id must be positive")
	}
	if ttl <= 0 {
		ttl = auth.AccessTokenDuration
	}
	token, err := auth.GenerateAccessToken(fmt.Sprintf("user-%d", userID), userID, time.Now().Add(ttl), []byte(instanceProfile.Secret))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, token)
	return nil
}
