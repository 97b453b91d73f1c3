package sqlitestore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/runoshun/agentdeck/internal/domain"
)

// migration is one forward-only schema step. apply must be idempotent.
type migration struct {
	apply   func(ctx context.Context, tx *sqlx.Tx) error
	name    string
	version int
}

var migrations = []migration{
	{version: 1, name: "base tables", apply: migrateBaseTables},
	{version: 2, name: "session feed state", apply: migrateSessionFeedState},
	{version: 3, name: "active session index", apply: migrateActiveSessionIndex},
}

// LatestVersion is the schema version this binary writes.
var LatestVersion = migrations[len(migrations)-1].version

// migrate brings the schema to LatestVersion in one transaction, so a
// failure leaves the previous schema untouched.
//
// A store holding entity tables but no schema_version table predates
// versioning; it is stamped at version 1 and only later steps run.
func migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	versioned, err := tableExists(ctx, tx, "schema_version")
	if err != nil {
		return err
	}
	if !versioned {
		legacy, err := tableExists(ctx, tx, "tasks")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			CREATE TABLE schema_version (
				version    INTEGER PRIMARY KEY,
				applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`); err != nil {
			return fmt.Errorf("create schema_version: %w", err)
		}
		if legacy {
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
				return fmt.Errorf("stamp legacy schema: %w", err)
			}
		}
	}

	var current int
	if err := tx.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > LatestVersion {
		return fmt.Errorf("%w: version %d, supported %d", domain.ErrSchemaTooNew, current, LatestVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(ctx, tx); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

func migrateBaseTables(ctx context.Context, tx *sqlx.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL UNIQUE,
			repo_path  TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id    INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'pending',
			mode          TEXT NOT NULL DEFAULT 'supervised',
			session_id    TEXT,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd      REAL NOT NULL DEFAULT 0,
			pr_url        TEXT NOT NULL DEFAULT '',
			sort_order    INTEGER NOT NULL,
			created_at    DATETIME NOT NULL,
			started_at    DATETIME,
			completed_at  DATETIME,
			UNIQUE (project_id, sort_order)
		)`,
		`CREATE TABLE IF NOT EXISTS subtasks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			title      TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			sort_order INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			project_id     INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			task_id        INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
			workspace_path TEXT NOT NULL,
			branch         TEXT NOT NULL,
			pane           TEXT NOT NULL,
			claude_status  TEXT NOT NULL DEFAULT 'idle',
			status_message TEXT NOT NULL DEFAULT '',
			files_changed  INTEGER,
			lines_added    INTEGER,
			lines_removed  INTEGER,
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL,
			closed_at      DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS rate_limit_state (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			paused        INTEGER NOT NULL DEFAULT 0,
			limit_window  TEXT NOT NULL DEFAULT '',
			five_hour_pct REAL NOT NULL DEFAULT 0,
			seven_day_pct REAL NOT NULL DEFAULT 0,
			resets_at     DATETIME,
			updated_at    DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateSessionFeedState(ctx context.Context, tx *sqlx.Tx) error {
	if err := ensureColumn(ctx, tx, "sessions", "feed_deferred", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return ensureColumn(ctx, tx, "sessions", "base_commit", "TEXT NOT NULL DEFAULT ''")
}

func migrateActiveSessionIndex(ctx context.Context, tx *sqlx.Tx) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active_task
			ON sessions(task_id) WHERE closed_at IS NULL AND task_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_queue ON tasks(project_id, status, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id, sort_order)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func tableExists(ctx context.Context, tx *sqlx.Tx, table string) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// ensureColumn adds a column to a table if it doesn't exist.
func ensureColumn(ctx context.Context, tx *sqlx.Tx, table, column, definition string) error {
	var n int
	err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
