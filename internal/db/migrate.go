package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateDependencyKindConstraint(db); err != nil {
		return fmt.Errorf("migrating task_dependencies kind constraint: %w", err)
	}
	if err := migrateBackfillBaselines(db); err != nil {
		return fmt.Errorf("backfilling task baselines: %w", err)
	}
	return nil
}

// migrateDependencyKindConstraint rebuilds task_dependencies on databases
// created before start-to-finish edges were accepted.
func migrateDependencyKindConstraint(db *sql.DB) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring db connection: %w", err)
	}
	defer conn.Close()

	var createSQL string
	if err := conn.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'task_dependencies'`).Scan(&createSQL); err != nil {
		return fmt.Errorf("loading task_dependencies schema: %w", err)
	}
	if strings.Contains(strings.ToUpper(createSQL), "'SF'") {
		return nil
	}

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS task_dependencies_new`); err != nil {
		return fmt.Errorf("dropping stale task_dependencies_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE TABLE task_dependencies_new (
		successor_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		predecessor_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		kind           TEXT NOT NULL DEFAULT 'FS'
		               CHECK(kind IN ('FS','SS','FF','SF')),
		lag_days       INTEGER NOT NULL DEFAULT 0,
		position       INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (successor_id, predecessor_id),
		CHECK (successor_id != predecessor_id)
	)`); err != nil {
		return fmt.Errorf("creating task_dependencies_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO task_dependencies_new (
		successor_id, predecessor_id, kind, lag_days, position
	) SELECT
		successor_id, predecessor_id, kind, lag_days, position
	FROM task_dependencies`); err != nil {
		return fmt.Errorf("copying task_dependencies data: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE task_dependencies`); err != nil {
		return fmt.Errorf("dropping old task_dependencies: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `ALTER TABLE task_dependencies_new RENAME TO task_dependencies`); err != nil {
		return fmt.Errorf("renaming task_dependencies_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_task_deps_predecessor ON task_dependencies(predecessor_id)`); err != nil {
		return fmt.Errorf("recreating idx_task_deps_predecessor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task_dependencies migration: %w", err)
	}
	committed = true

	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		short_id    TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		start_date  TEXT,
		target_date TEXT,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','paused','done','archived')),
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id != ''`,

	`CREATE TABLE IF NOT EXISTS project_sequences (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		next_seq   INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS phases (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_phases_project ON phases(project_id)`,

	`CREATE TABLE IF NOT EXISTS milestones (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		phase_id    TEXT REFERENCES phases(id) ON DELETE SET NULL,
		title       TEXT NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_phase ON milestones(phase_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		milestone_id    TEXT REFERENCES milestones(id) ON DELETE SET NULL,
		parent_task_id  TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		title           TEXT NOT NULL,
		order_index     INTEGER NOT NULL DEFAULT 0,
		duration_days   INTEGER NOT NULL DEFAULT 1 CHECK(duration_days >= 1),
		start_date      TEXT,
		end_date        TEXT,
		manual_override INTEGER NOT NULL DEFAULT 0,
		progress        INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
		status          TEXT NOT NULL DEFAULT 'not_started'
		                CHECK(status IN ('not_started','in_progress','completed','on_hold','cancelled')),
		priority        TEXT NOT NULL DEFAULT 'medium'
		                CHECK(priority IN ('low','medium','high','critical')),
		version         INTEGER NOT NULL DEFAULT 1,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_milestone ON tasks(milestone_id)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		successor_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		predecessor_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		kind           TEXT NOT NULL DEFAULT 'FS'
		               CHECK(kind IN ('FS','SS','FF','SF')),
		lag_days       INTEGER NOT NULL DEFAULT 0,
		position       INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (successor_id, predecessor_id),
		CHECK (successor_id != predecessor_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_deps_predecessor ON task_dependencies(predecessor_id)`,

	// Baselines for variance reporting
	`ALTER TABLE tasks ADD COLUMN baseline_start TEXT`,
	`ALTER TABLE tasks ADD COLUMN baseline_end TEXT`,
}

// migrateBackfillBaselines captures a baseline for tasks that were scheduled
// before baselines existed. Idempotent: only rows with a NULL baseline and a
// known date are touched.
func migrateBackfillBaselines(db *sql.DB) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx,
		`UPDATE tasks SET baseline_start = start_date
		 WHERE baseline_start IS NULL AND start_date IS NOT NULL`); err != nil {
		return fmt.Errorf("backfilling baseline_start: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE tasks SET baseline_end = end_date
		 WHERE baseline_end IS NULL AND end_date IS NOT NULL`); err != nil {
		return fmt.Errorf("backfilling baseline_end: %w", err)
	}
	return nil
}
