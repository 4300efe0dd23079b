package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cadence/internal/db"
)

// SQLiteProjectSequenceRepo hands out the per-project task numbers used in
// PROJECT#N references. Numbers are never reused, even after a delete.
type SQLiteProjectSequenceRepo struct {
	db db.DBTX
}

func NewSQLiteProjectSequenceRepo(conn db.DBTX) *SQLiteProjectSequenceRepo {
	return &SQLiteProjectSequenceRepo{db: conn}
}

// NextTaskIndex returns the next unused task number for a project.
func (r *SQLiteProjectSequenceRepo) NextTaskIndex(ctx context.Context, projectID string) (int, error) {
	return r.Reserve(ctx, projectID, 1)
}

// Reserve claims n consecutive task numbers and returns the first. The counter
// is seeded lazily from the highest order_index already stored, so projects
// created by import continue numbering after their last task.
func (r *SQLiteProjectSequenceRepo) Reserve(ctx context.Context, projectID string, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("reserving %d task numbers: count must be positive", n)
	}

	const seed = `INSERT OR IGNORE INTO project_sequences (project_id, next_seq)
		SELECT ?, COALESCE(MAX(order_index), 0) + 1 FROM tasks WHERE project_id = ?`
	if _, err := r.db.ExecContext(ctx, seed, projectID, projectID); err != nil {
		return 0, fmt.Errorf("seeding task numbers for %s: %w", projectID, err)
	}

	const claim = `UPDATE project_sequences SET next_seq = next_seq + ?
		WHERE project_id = ? RETURNING next_seq - ?`
	var first int
	if err := r.db.QueryRowContext(ctx, claim, n, projectID, n).Scan(&first); err != nil {
		return 0, fmt.Errorf("claiming task numbers for %s: %w", projectID, err)
	}
	return first, nil
}
