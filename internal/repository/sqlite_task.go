package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

const taskColumns = `id, project_id, milestone_id, parent_task_id, title, order_index,
	duration_days, start_date, end_date, baseline_start, baseline_end, manual_override,
	progress, status, priority, version, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db   db.DBTX
	deps *SQLiteDependencyRepo
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn, deps: NewSQLiteDependencyRepo(conn)}
}

// Create inserts the task and its dependency list. Predecessors must already
// exist. A dated task without a baseline gets its current dates as baseline.
func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	t.CaptureBaseline()
	if t.Version == 0 {
		t.Version = 1
	}
	if t.Status == "" {
		t.Status = domain.TaskNotStarted
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		nullableString(t.MilestoneID),
		nullableString(t.ParentTaskID),
		t.Title,
		t.OrderIndex,
		t.Duration,
		nullableTimeToString(t.StartDate, dateLayout),
		nullableTimeToString(t.EndDate, dateLayout),
		nullableTimeToString(t.BaselineStart, dateLayout),
		nullableTimeToString(t.BaselineEnd, dateLayout),
		boolToInt(t.ManualOverride),
		t.Progress,
		string(t.Status),
		string(t.Priority),
		t.Version,
		t.CreatedAt.Format(timestampLayout),
		t.UpdatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	for _, d := range t.Dependencies {
		if err := r.deps.Create(ctx, t.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	t.Dependencies, err = r.deps.ListPredecessors(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByProject returns the project's tasks in order_index order, each with
// its dependency list attached.
func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	tasks, err := r.listTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	links, err := r.deps.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, l := range links {
		if t, ok := byID[l.TaskID]; ok {
			t.Dependencies = append(t.Dependencies, l.Dependency)
		}
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) listTasks(ctx context.Context, projectID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update writes every column except the dependency list, which is owned by
// DependencyRepo. On success t.Version holds the new version.
func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET
		milestone_id = ?, parent_task_id = ?, title = ?, order_index = ?,
		duration_days = ?, start_date = ?, end_date = ?, baseline_start = ?, baseline_end = ?,
		manual_override = ?, progress = ?, status = ?, priority = ?,
		version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(t.MilestoneID),
		nullableString(t.ParentTaskID),
		t.Title,
		t.OrderIndex,
		t.Duration,
		nullableTimeToString(t.StartDate, dateLayout),
		nullableTimeToString(t.EndDate, dateLayout),
		nullableTimeToString(t.BaselineStart, dateLayout),
		nullableTimeToString(t.BaselineEnd, dateLayout),
		boolToInt(t.ManualOverride),
		t.Progress,
		string(t.Status),
		string(t.Priority),
		t.UpdatedAt.Format(timestampLayout),
		t.ID,
		t.Version,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if err := r.checkVersioned(ctx, res, t.ID); err != nil {
		return err
	}
	t.Version++
	return nil
}

// ApplyDateUpdate writes only the two dates, guarded by expectedVersion. The
// first dates a task ever receives also become its baseline.
func (r *SQLiteTaskRepo) ApplyDateUpdate(ctx context.Context, id string, start, end *time.Time, expectedVersion int) error {
	query := `UPDATE tasks SET start_date = ?1, end_date = ?2,
		baseline_start = COALESCE(baseline_start, ?1), baseline_end = COALESCE(baseline_end, ?2),
		version = version + 1, updated_at = ?3
		WHERE id = ?4 AND version = ?5`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(start, dateLayout),
		nullableTimeToString(end, dateLayout),
		nowUTC(),
		id,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating task dates: %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// checkVersioned tells a missing row apart from a version mismatch.
func (r *SQLiteTaskRepo) checkVersioned(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking task %s: %w", id, err)
	}
	return fmt.Errorf("task %s: %w", id, ErrStaleSnapshot)
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var milestoneID, parentID sql.NullString
	var startStr, endStr, baseStartStr, baseEndStr sql.NullString
	var manual int
	var statusStr, priorityStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&t.ID, &t.ProjectID, &milestoneID, &parentID, &t.Title, &t.OrderIndex,
		&t.Duration, &startStr, &endStr, &baseStartStr, &baseEndStr, &manual,
		&t.Progress, &statusStr, &priorityStr, &t.Version, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.MilestoneID = parseNullableString(milestoneID)
	t.ParentTaskID = parseNullableString(parentID)
	t.StartDate = parseNullableTime(startStr, dateLayout)
	t.EndDate = parseNullableTime(endStr, dateLayout)
	t.BaselineStart = parseNullableTime(baseStartStr, dateLayout)
	t.BaselineEnd = parseNullableTime(baseEndStr, dateLayout)
	t.ManualOverride = intToBool(manual)
	t.Status = domain.TaskStatus(statusStr)
	t.Priority = domain.Priority(priorityStr)

	t.CreatedAt, t.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing task timestamps: %w", err)
	}
	return &t, nil
}
