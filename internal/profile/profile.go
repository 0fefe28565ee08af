package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where notegraph stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your notegraph instance.
	InstanceURL string
	// Secret signs access tokens.
	Secret string

	// Relation cache configuration
	RelationCacheTTL time.Duration // NOTEGRAPH_RELATION_CACHE_TTL (default: 30s)
	RedisAddr        string        // NOTEGRAPH_CACHE_REDIS_ADDR (empty disables L2)
	RedisPassword    string        // NOTEGRAPH_CACHE_REDIS_PASSWORD
	RedisDB          int           // NOTEGRAPH_CACHE_REDIS_DB (default: 0)
	RedisPrefix      string        // NOTEGRAPH_CACHE_REDIS_PREFIX (default: notegraph:)

	// Rate limiting per user
	RateLimitRPS   float64 // NOTEGRAPH_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst int     // NOTEGRAPH_RATE_LIMIT_BURST (default: 20)
}

const (
	defaultRelationCacheTTL = 30 * time.Second
	defaultRedisPrefix      = "notegraph:"
	defaultRateLimitRPS     = 10
	defaultRateLimitBurst   = 20
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRedisEnabled returns true if an L2 Redis cache address is configured.
func (p *Profile) IsRedisEnabled() bool {
	return p.RedisAddr != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads cache and rate limit configuration from environment variables.
// Invalid numeric values fall back to defaults.
func (p *Profile) FromEnv() {
	p.RelationCacheTTL = defaultRelationCacheTTL
	if raw := os.Getenv("NOTEGRAPH_RELATION_CACHE_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl >= 0 {
			p.RelationCacheTTL = ttl
		} else {
			slog.Warn("invalid relation cache ttl, using default", slog.String("value", raw))
		}
	}

	p.RedisAddr = os.Getenv("NOTEGRAPH_CACHE_REDIS_ADDR")
	p.RedisPassword = os.Getenv("NOTEGRAPH_CACHE_REDIS_PASSWORD")
	p.RedisPrefix = getEnvOrDefault("NOTEGRAPH_CACHE_REDIS_PREFIX", defaultRedisPrefix)
	p.RedisDB = 0
	if db, err := strconv.Atoi(os.Getenv("NOTEGRAPH_CACHE_REDIS_DB")); err == nil && db >= 0 {
		p.RedisDB = db
	}

	p.RateLimitRPS = defaultRateLimitRPS
	if rps, err := strconv.ParseFloat(os.Getenv("NOTEGRAPH_RATE_LIMIT_RPS"), 64); err == nil && rps > 0 {
		p.RateLimitRPS = rps
	}
	p.RateLimitBurst = defaultRateLimitBurst
	if burst, err := strconv.Atoi(os.Getenv("NOTEGRAPH_RATE_LIMIT_BURST")); err == nil && burst > 0 {
		p.RateLimitBurst = burst
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "notegraph")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/notegraph"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("notegraph_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Mode == "prod" && p.Secret == "" {
		return errors.New("a token secret is required in prod mode")
	}
	if p.Secret == "" {
		p.Secret = "notegraph-" + p.Mode
		slog.Warn("no token secret configured, using a predictable default; anyone can mint tokens for this instance",
			slog.String("mode", p.Mode))
	}

	return nil
}
