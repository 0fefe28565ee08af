package store

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/version"
)

// Migration System Overview:
//
// A fresh database gets the full schema from LATEST.sql for its driver.
// Location: store/migration/{driver}/LATEST.sql
// Statements are split on semicolons and applied in
// a single transaction, so a failed migration leaves no partial schema.
//
// Every binary version that opens the database is recorded in migration_history.
// Opening a database last written by a newer version logs a warning.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"
)

// Migrate applies the latest schema if the database has not been initialized yet.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		slog.Debug("database already initialized", "driver", s.profile.Driver)
		return s.checkSchemaVersion(ctx)
	}

	schema, err := s.latestSchema()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(schema) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement: %s", stmt)
		}
	}
	if err := s.recordVersion(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Info("database schema initialized", "driver", s.profile.Driver)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// recordVersion stores the running binary version. Invalid versions are not recorded.
func (s *Store) recordVersion(ctx context.Context, db execer) error {
	if !version.IsValid(s.profile.Version) {
		return nil
	}
	query := "INSERT INTO migration_history (version, created_ts) VALUES (" + s.placeholder(1) + ", " + s.placeholder(2) + ")"
	if _, err := db.ExecContext(ctx, query, s.profile.Version, time.Now().Unix()); err != nil {
		return errors.Wrap(err, "failed to record migration history")
	}
	return nil
}

// ListMigrationHistory returns every recorded version.
func (s *Store) ListMigrationHistory(ctx context.Context) ([]string, error) {
	rows, err := s.driver.GetDB().QueryContext(ctx, "SELECT version FROM migration_history ORDER BY created_ts ASC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migration history")
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// checkSchemaVersion compares the recorded schema version with the running binary.
func (s *Store) checkSchemaVersion(ctx context.Context) error {
	if !version.IsValid(s.profile.Version) {
		return nil
	}
	history, err := s.ListMigrationHistory(ctx)
	if err != nil {
		return err
	}

	latest := version.Latest(history)
	switch {
	case latest == "" || version.IsVersionGreaterThan(s.profile.Version, latest):
		return s.recordVersion(ctx, s.driver.GetDB())
	case version.IsVersionGreaterThan(latest, s.profile.Version):
		slog.Warn("database was written by a newer version",
			slog.String("database_version", latest),
			slog.String("binary_version", s.profile.Version),
		)
	}
	return nil
}

func (s *Store) placeholder(n int) string {
	if s.profile.Driver == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *Store) latestSchema() (string, error) {
	path := filepath.ToSlash(filepath.Join("migration", s.profile.Driver, LatestSchemaFileName))
	buf, err := migrationFS.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read latest schema %s", path)
	}
	return string(buf), nil
}

// splitStatements splits a schema file on ";" and drops comment-only chunks.
func splitStatements(schema string) []string {
	var statements []string
	for _, chunk := range strings.Split(schema, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
