package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLitePhaseRepo implements PhaseRepo using a SQLite database.
type SQLitePhaseRepo struct {
	db db.DBTX
}

// NewSQLitePhaseRepo creates a new SQLitePhaseRepo.
func NewSQLitePhaseRepo(conn db.DBTX) *SQLitePhaseRepo {
	return &SQLitePhaseRepo{db: conn}
}

func (r *SQLitePhaseRepo) Create(ctx context.Context, ph *domain.Phase) error {
	query := `INSERT INTO phases (id, project_id, title, order_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		ph.ID, ph.ProjectID, ph.Title, ph.OrderIndex,
		ph.CreatedAt.Format(timestampLayout), ph.UpdatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting phase: %w", err)
	}
	return nil
}

func (r *SQLitePhaseRepo) GetByID(ctx context.Context, id string) (*domain.Phase, error) {
	query := `SELECT id, project_id, title, order_index, created_at, updated_at FROM phases WHERE id = ?`
	ph, err := scanPhase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	members, err := r.milestoneIDs(ctx, `WHERE phase_id = ?`, id)
	if err != nil {
		return nil, err
	}
	ph.MilestoneIDs = members[id]
	return ph, nil
}

// ListByProject returns phases in order with their milestone ids filled in.
func (r *SQLitePhaseRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Phase, error) {
	phases, err := r.listPhases(ctx, projectID)
	if err != nil {
		return nil, err
	}
	members, err := r.milestoneIDs(ctx, `WHERE project_id = ? AND phase_id IS NOT NULL`, projectID)
	if err != nil {
		return nil, err
	}
	for _, ph := range phases {
		ph.MilestoneIDs = members[ph.ID]
	}
	return phases, nil
}

func (r *SQLitePhaseRepo) listPhases(ctx context.Context, projectID string) ([]*domain.Phase, error) {
	query := `SELECT id, project_id, title, order_index, created_at, updated_at
		FROM phases WHERE project_id = ? ORDER BY order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing phases: %w", err)
	}
	defer rows.Close()

	var phases []*domain.Phase
	for rows.Next() {
		ph, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating phases: %w", err)
	}
	return phases, nil
}

func (r *SQLitePhaseRepo) milestoneIDs(ctx context.Context, where string, arg string) (map[string][]string, error) {
	query := `SELECT phase_id, id FROM milestones ` + where + ` ORDER BY order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing phase milestones: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var phaseID, id string
		if err := rows.Scan(&phaseID, &id); err != nil {
			return nil, fmt.Errorf("scanning phase milestone: %w", err)
		}
		out[phaseID] = append(out[phaseID], id)
	}
	return out, rows.Err()
}

func (r *SQLitePhaseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting phase: %w", err)
	}
	return nil
}

func scanPhase(row rowScanner) (*domain.Phase, error) {
	var ph domain.Phase
	var createdAtStr, updatedAtStr string
	if err := row.Scan(&ph.ID, &ph.ProjectID, &ph.Title, &ph.OrderIndex, &createdAtStr, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("phase %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning phase: %w", err)
	}
	var err error
	ph.CreatedAt, ph.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing phase timestamps: %w", err)
	}
	return &ph, nil
}

// SQLiteMilestoneRepo implements MilestoneRepo using a SQLite database.
type SQLiteMilestoneRepo struct {
	db db.DBTX
}

// NewSQLiteMilestoneRepo creates a new SQLiteMilestoneRepo.
func NewSQLiteMilestoneRepo(conn db.DBTX) *SQLiteMilestoneRepo {
	return &SQLiteMilestoneRepo{db: conn}
}

const milestoneColumns = `id, project_id, phase_id, title, order_index, created_at, updated_at`

func (r *SQLiteMilestoneRepo) Create(ctx context.Context, m *domain.Milestone) error {
	query := `INSERT INTO milestones (` + milestoneColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ProjectID, nullableString(m.PhaseID), m.Title, m.OrderIndex,
		m.CreatedAt.Format(timestampLayout), m.UpdatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting milestone: %w", err)
	}
	return nil
}

func (r *SQLiteMilestoneRepo) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = ?`
	m, err := scanMilestone(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	members, err := r.taskIDs(ctx, `WHERE milestone_id = ?`, id)
	if err != nil {
		return nil, err
	}
	m.TaskIDs = members[id]
	return m, nil
}

// ListByProject returns milestones in order with their task ids filled in.
func (r *SQLiteMilestoneRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	milestones, err := r.listMilestones(ctx, projectID)
	if err != nil {
		return nil, err
	}
	members, err := r.taskIDs(ctx, `WHERE project_id = ? AND milestone_id IS NOT NULL`, projectID)
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		m.TaskIDs = members[m.ID]
	}
	return milestones, nil
}

func (r *SQLiteMilestoneRepo) listMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE project_id = ? ORDER BY order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	var out []*domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestones: %w", err)
	}
	return out, nil
}

func (r *SQLiteMilestoneRepo) taskIDs(ctx context.Context, where string, arg string) (map[string][]string, error) {
	query := `SELECT milestone_id, id FROM tasks ` + where + ` ORDER BY order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing milestone tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var milestoneID, id string
		if err := rows.Scan(&milestoneID, &id); err != nil {
			return nil, fmt.Errorf("scanning milestone task: %w", err)
		}
		out[milestoneID] = append(out[milestoneID], id)
	}
	return out, rows.Err()
}

func (r *SQLiteMilestoneRepo) Update(ctx context.Context, m *domain.Milestone) error {
	query := `UPDATE milestones SET phase_id = ?, title = ?, order_index = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(m.PhaseID), m.Title, m.OrderIndex, m.UpdatedAt.Format(timestampLayout), m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating milestone: %w", err)
	}
	return expectOneRow(res, "milestone", m.ID)
}

func (r *SQLiteMilestoneRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting milestone: %w", err)
	}
	return nil
}

func scanMilestone(row rowScanner) (*domain.Milestone, error) {
	var m domain.Milestone
	var phaseID sql.NullString
	var createdAtStr, updatedAtStr string
	if err := row.Scan(&m.ID, &m.ProjectID, &phaseID, &m.Title, &m.OrderIndex, &createdAtStr, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("milestone %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning milestone: %w", err)
	}
	m.PhaseID = parseNullableString(phaseID)
	var err error
	m.CreatedAt, m.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing milestone timestamps: %w", err)
	}
	return &m, nil
}
