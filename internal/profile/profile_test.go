package profile

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDefaults(t *testing.T) {
	for _, key := range []string{
		"NOTEGRAPH_RELATION_CACHE_TTL",
		"NOTEGRAPH_CACHE_REDIS_ADDR",
		"NOTEGRAPH_CACHE_REDIS_PASSWORD",
		"NOTEGRAPH_CACHE_REDIS_DB",
		"NOTEGRAPH_CACHE_REDIS_PREFIX",
		"NOTEGRAPH_RATE_LIMIT_RPS",
		"NOTEGRAPH_RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, 30*time.Second, profile.RelationCacheTTL)
	assert.Equal(t, "", profile.RedisAddr)
	assert.False(t, profile.IsRedisEnabled())
	assert.Equal(t, "notegraph:", profile.RedisPrefix)
	assert.Equal(t, 0, profile.RedisDB)
	assert.Equal(t, 10.0, profile.RateLimitRPS)
	assert.Equal(t, 20, profile.RateLimitBurst)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
		check  func(t *testing.T, p *Profile)
	}{
		{
			name:   "cache ttl",
			envVar: "NOTEGRAPH_RELATION_CACHE_TTL",
			value:  "2m",
			check:  func(t *testing.T, p *Profile) { assert.Equal(t, 2*time.Minute, p.RelationCacheTTL) },
		},
		{
			name:   "invalid cache ttl falls back",
			envVar: "NOTEGRAPH_RELATION_CACHE_TTL",
			value:  "soon",
			check:  func(t *testing.T, p *Profile) { assert.Equal(t, 30*time.Second, p.RelationCacheTTL) },
		},
		{
			name:   "redis addr",
			envVar: "NOTEGRAPH_CACHE_REDIS_ADDR",
			value:  "localhost:6379",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "localhost:6379", p.RedisAddr)
				assert.True(t, p.IsRedisEnabled())
			},
		},
		{
			name:   "redis db",
			envVar: "NOTEGRAPH_CACHE_REDIS_DB",
			value:  "3",
			check:  func(t *testing.T, p *Profile) { assert.Equal(t, 3, p.RedisDB) },
		},
		{
			name:   "rate limit",
			envVar: "NOTEGRAPH_RATE_LIMIT_RPS",
			value:  "2.5",
			check:  func(t *testing.T, p *Profile) { assert.Equal(t, 2.5, p.RateLimitRPS) },
		},
		{
			name:   "negative burst ignored",
			envVar: "NOTEGRAPH_RATE_LIMIT_BURST",
			value:  "-1",
			check:  func(t *testing.T, p *Profile) { assert.Equal(t, 20, p.RateLimitBurst) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)
			p := &Profile{}
			p.FromEnv()
			tt.check(t, p)
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "unknown", Data: dir}
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, filepath.Join(dir, "notegraph_demo.db"), p.DSN)
	assert.NotEmpty(t, p.Secret)
	assert.True(t, p.IsDev())

	p = &Profile{Mode: "prod", Data: dir, Driver: "postgres", DSN: "postgres://x"}
	require.Error(t, p.Validate(), "prod requires a secret")

	p = &Profile{Mode: "prod", Data: dir, Driver: "postgres", DSN: "postgres://x", Secret: "s3cret"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "postgres://x", p.DSN)
	assert.False(t, p.IsDev())

	p = &Profile{Mode: "dev", Data: filepath.Join(dir, "missing")}
	require.Error(t, p.Validate())
}

func TestValidateWarnsOnDefaultSecret(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	dir := t.TempDir()
	p := &Profile{Mode: "dev", Data: dir}
	require.NoError(t, p.Validate())
	assert.Equal(t, "notegraph-dev", p.Secret)
	assert.Contains(t, buf.String(), "no token secret configured")
	assert.Contains(t, buf.String(), "mode=dev")

	buf.Reset()
	p = &Profile{Mode: "dev", Data: dir, Secret: "s3cret"}
	require.NoError(t, p.Validate())
	assert.NotContains(t, buf.String(), "no token secret configured")
}
