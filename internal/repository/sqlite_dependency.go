package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteDependencyRepo stores edges on the dependent task; position keeps
// declaration order.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

// Create appends d to the end of taskID's dependency list.
func (r *SQLiteDependencyRepo) Create(ctx context.Context, taskID string, d domain.Dependency) error {
	kind := domain.Coalesce(d.Kind, domain.FinishToStart)
	query := `INSERT INTO task_dependencies (successor_id, predecessor_id, kind, lag_days, position)
		SELECT ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1
		FROM task_dependencies WHERE successor_id = ?`
	_, err := r.db.ExecContext(ctx, query, taskID, d.PredecessorID, string(kind), d.LagDays, taskID)
	if isUniqueViolation(err) {
		return fmt.Errorf("dependency %s -> %s: %w", d.PredecessorID, taskID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting dependency %s -> %s: %w", d.PredecessorID, taskID, err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, taskID, predecessorID string) error {
	query := `DELETE FROM task_dependencies WHERE successor_id = ? AND predecessor_id = ?`
	res, err := r.db.ExecContext(ctx, query, taskID, predecessorID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	return expectOneRow(res, "dependency", predecessorID+" -> "+taskID)
}

// ListPredecessors returns the edges held by taskID in declaration order.
func (r *SQLiteDependencyRepo) ListPredecessors(ctx context.Context, taskID string) ([]domain.Dependency, error) {
	query := `SELECT successor_id, predecessor_id, kind, lag_days
		FROM task_dependencies WHERE successor_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing predecessors: %w", err)
	}
	defer rows.Close()

	links, err := scanLinks(rows)
	if err != nil {
		return nil, err
	}
	deps := make([]domain.Dependency, 0, len(links))
	for _, l := range links {
		deps = append(deps, l.Dependency)
	}
	return deps, nil
}

// ListSuccessors returns the ids of tasks that depend on taskID.
func (r *SQLiteDependencyRepo) ListSuccessors(ctx context.Context, taskID string) ([]string, error) {
	query := `SELECT successor_id FROM task_dependencies WHERE predecessor_id = ? ORDER BY successor_id`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing successors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning successor: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating successors: %w", err)
	}
	return ids, nil
}

// ListByProject returns every edge whose dependent task belongs to the project.
func (r *SQLiteDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Link, error) {
	query := `SELECT d.successor_id, d.predecessor_id, d.kind, d.lag_days
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.successor_id
		WHERE t.project_id = ?
		ORDER BY d.successor_id, d.position`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project dependencies: %w", err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

func scanLinks(rows *sql.Rows) ([]domain.Link, error) {
	var links []domain.Link
	for rows.Next() {
		var l domain.Link
		var kind string
		if err := rows.Scan(&l.TaskID, &l.Dependency.PredecessorID, &kind, &l.Dependency.LagDays); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		l.Dependency.Kind = domain.RelationKind(kind)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return links, nil
}
