package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"booktalk/internal/applog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_sessions",
		SQL: `CREATE TABLE IF NOT EXISTS sessions (
  id                  TEXT        PRIMARY KEY,
  document_key        TEXT        NOT NULL,
  original_filename   TEXT        NOT NULL,
  content_type        TEXT        NOT NULL,
  size                BIGINT      NOT NULL CHECK (size >= 0),
  handle_name         TEXT        NOT NULL DEFAULT '',
  handle_uri          TEXT        NOT NULL DEFAULT '',
  handle_mime         TEXT        NOT NULL DEFAULT '',
  document_created_at TIMESTAMPTZ NOT NULL,
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_interactions",
		SQL: `CREATE TABLE IF NOT EXISTS interactions (
  id           UUID        PRIMARY KEY,
  session_id   TEXT        NOT NULL,
  document_key TEXT        NOT NULL,
  question     TEXT        NOT NULL,
  answer       TEXT        NOT NULL,
  audio_key    TEXT        NOT NULL,
  grounding    TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_interactions_session_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_interactions_session_created_at ON interactions (session_id, created_at DESC);`,
	},
}

// EnsureMigrated creates the session and interaction tables when the interactions table is
// missing. All steps run in one transaction, so a failed step leaves no partial schema.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()
	fields := func(extra map[string]any) map[string]any {
		f := map[string]any{"db_host": dbHost, "duration_ms": time.Since(start).Milliseconds()}
		for k, v := range extra {
			f[k] = v
		}
		return f
	}
	applog.Info("database", "db_migration_check", fields(nil))

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.interactions') IS NOT NULL").Scan(&exists); err != nil {
		applog.Error("database", "db_migration_failed", err, fields(nil))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		applog.Info("database", "db_migration_skip", fields(map[string]any{"msg": "schema already exists"}))
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		applog.Error("database", "db_migration_failed", err, fields(nil))
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			applog.Error("database", "db_migration_failed", err, fields(map[string]any{"migration_step": step.Name}))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		applog.Info("database", "db_migration_step", fields(map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}))
	}

	if err := tx.Commit(); err != nil {
		applog.Error("database", "db_migration_failed", err, fields(nil))
		return fmt.Errorf("commit migration: %w", err)
	}
	applog.Info("database", "db_migration_success", fields(map[string]any{"steps": len(steps)}))
	return nil
}
