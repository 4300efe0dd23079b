package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const ts = "2025-01-01T00:00:00Z"

func seedProjectWithTasks(t *testing.T, db *sql.DB, taskIDs ...string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO projects (id, short_id, name, status, created_at, updated_at)
		VALUES ('p1', 'TST01', 'Test', 'active', ?, ?)`, ts, ts)
	require.NoError(t, err)
	for _, id := range taskIDs {
		_, err = db.Exec(`INSERT INTO tasks (id, project_id, title, created_at, updated_at)
			VALUES (?, 'p1', ?, ?, ?)`, id, "Task "+id, ts, ts)
		require.NoError(t, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// A second run is a no-op.
	err := Migrate(db)
	require.NoError(t, err)

	err = Migrate(db)
	require.NoError(t, err)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{"projects", "project_sequences", "phases", "milestones", "tasks", "task_dependencies"}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_projects_short_id",
		"idx_phases_project",
		"idx_milestones_project",
		"idx_milestones_phase",
		"idx_tasks_project",
		"idx_tasks_milestone",
		"idx_task_deps_predecessor",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestMigrate_WALModeRequested(t *testing.T) {
	// In-memory SQLite reports "memory"; WAL only applies to file DBs.
	db := openTestDB(t)

	var mode string
	err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestMigrate_TasksBaselineColumns(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.Query(`PRAGMA table_info(tasks)`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt sql.NullString
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		found[name] = true
	}
	assert.True(t, found["baseline_start"])
	assert.True(t, found["baseline_end"])
	assert.True(t, found["version"])
}

func TestMigrate_TasksCheckConstraints(t *testing.T) {
	db := openTestDB(t)
	seedProjectWithTasks(t, db)

	_, err := db.Exec(`INSERT INTO tasks (id, project_id, title, duration_days, created_at, updated_at)
		VALUES ('t0', 'p1', 'Zero', 0, ?, ?)`, ts, ts)
	assert.Error(t, err, "zero duration should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO tasks (id, project_id, title, progress, created_at, updated_at)
		VALUES ('t1', 'p1', 'Over', 101, ?, ?)`, ts, ts)
	assert.Error(t, err, "progress above 100 should be rejected")

	_, err = db.Exec(`INSERT INTO tasks (id, project_id, title, status, created_at, updated_at)
		VALUES ('t2', 'p1', 'Bad', 'INVALID', ?, ?)`, ts, ts)
	assert.Error(t, err, "invalid status should be rejected")

	_, err = db.Exec(`INSERT INTO tasks (id, project_id, title, created_at, updated_at)
		VALUES ('t3', 'p1', 'Fine', ?, ?)`, ts, ts)
	assert.NoError(t, err)

	var status, priority string
	var version int
	err = db.QueryRow(`SELECT status, priority, version FROM tasks WHERE id = 't3'`).Scan(&status, &priority, &version)
	require.NoError(t, err)
	assert.Equal(t, "not_started", status)
	assert.Equal(t, "medium", priority)
	assert.Equal(t, 1, version)
}

func TestMigrate_ProjectsStatusCheckConstraint(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO projects (id, name, status, created_at, updated_at, short_id)
		VALUES ('p1', 'Test', 'INVALID', ?, ?, 'TST01')`, ts, ts)
	assert.Error(t, err, "invalid project status should be rejected by CHECK constraint")
}

func TestMigrate_DependencyConstraints(t *testing.T) {
	db := openTestDB(t)
	seedProjectWithTasks(t, db, "a", "b")

	_, err := db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id, kind, lag_days) VALUES ('b', 'a', 'SF', -2)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id) VALUES ('b', 'a')`)
	assert.Error(t, err, "duplicate pair should violate composite primary key")

	_, err = db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id) VALUES ('a', 'a')`)
	assert.Error(t, err, "self reference should be rejected")

	_, err = db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id, kind) VALUES ('a', 'b', 'XX')`)
	assert.Error(t, err, "unknown kind should be rejected")

	_, err = db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id) VALUES ('a', 'ghost')`)
	assert.Error(t, err, "foreign key should reject unknown predecessor")
}

func TestMigrate_DeletingTaskRemovesItsEdges(t *testing.T) {
	db := openTestDB(t)
	seedProjectWithTasks(t, db, "a", "b")

	_, err := db.Exec(`INSERT INTO task_dependencies (successor_id, predecessor_id) VALUES ('b', 'a')`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM tasks WHERE id = 'a'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_dependencies`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrate_ProjectsShortIDPartialUniqueIndex(t *testing.T) {
	db := openTestDB(t)

	// Empty short IDs are allowed repeatedly.
	_, err := db.Exec(`INSERT INTO projects (id, name, status, created_at, updated_at, short_id)
		VALUES ('p1', 'Test 1', 'active', ?, ?, '')`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO projects (id, name, status, created_at, updated_at, short_id)
		VALUES ('p2', 'Test 2', 'active', ?, ?, '')`, ts, ts)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO projects (id, name, status, created_at, updated_at, short_id)
		VALUES ('p3', 'Test 3', 'active', ?, ?, 'DUP01')`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO projects (id, name, status, created_at, updated_at, short_id)
		VALUES ('p4', 'Test 4', 'active', ?, ?, 'DUP01')`, ts, ts)
	assert.Error(t, err)
}

func TestMigrateDependencyKindConstraint_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, migrateDependencyKindConstraint(db))
}
