package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	teststore "github.com/hrygo/notegraph/store/test"
)

func newTestProfile() *profile.Profile {
	return &profile.Profile{
		Mode:           "dev",
		Addr:           "127.0.0.1",
		Port:           0,
		Secret:         "test-secret",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

func TestHealthz(t *testing.T) {
	ctx := context.Background()
	s, err := NewServer(ctx, newTestProfile(), teststore.NewTestingStore(ctx, t, nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Service ready.", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/note-clusters", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	ctx := context.Background()
	s, err := NewServer(ctx, newTestProfile(), teststore.NewTestingStore(ctx, t, nil))
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Service ready.", string(body))

	s.Shutdown(ctx)
	_, err = http.Get("http://" + s.Addr().String() + "/healthz")
	assert.Error(t, err)
}
