package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const projectColumns = `id, short_id, name, start_date, target_date, status, created_at, updated_at`

type SQLiteProjectRepo struct {
	db db.DBTX
}

func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

// projectValues returns the mutable columns in the order shared by INSERT
// and UPDATE.
func projectValues(p *domain.Project) []any {
	return []any{
		p.ShortID,
		p.Name,
		p.StartDate.Format(dateLayout),
		nullableTimeToString(p.TargetDate, dateLayout),
		string(p.Status),
		p.UpdatedAt.Format(timestampLayout),
	}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	const query = `INSERT INTO projects
		(short_id, name, start_date, target_date, status, updated_at, id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := append(projectValues(p), p.ID, p.CreatedAt.Format(timestampLayout))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", p.ShortID, ErrDuplicate)
		}
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return r.getOne(ctx, `id = ?`, id)
}

// GetByShortID matches case-insensitively.
func (r *SQLiteProjectRepo) GetByShortID(ctx context.Context, shortID string) (*domain.Project, error) {
	return r.getOne(ctx, `UPPER(short_id) = UPPER(?)`, shortID)
}

func (r *SQLiteProjectRepo) getOne(ctx context.Context, where string, arg any) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+where, arg)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, short_id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	const query = `UPDATE projects
		SET short_id = ?, name = ?, start_date = ?, target_date = ?, status = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, append(projectValues(p), p.ID)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", p.ShortID, ErrDuplicate)
		}
		return fmt.Errorf("updating project: %w", err)
	}
	return expectOneRow(res, "project", p.ID)
}

// Delete removes the project; phases, milestones and tasks go with it through
// ON DELETE CASCADE.
func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return expectOneRow(res, "project", id)
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p                domain.Project
		status           string
		start, target    sql.NullString
		created, updated string
	)
	err := row.Scan(&p.ID, &p.ShortID, &p.Name, &start, &target, &status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Status = domain.ProjectStatus(status)
	if s := parseNullableTime(start, dateLayout); s != nil {
		p.StartDate = *s
	}
	p.TargetDate = parseNullableTime(target, dateLayout)
	if p.CreatedAt, p.UpdatedAt, err = parseTimestamps(created, updated); err != nil {
		return nil, fmt.Errorf("parsing project timestamps: %w", err)
	}
	return &p, nil
}

// expectOneRow turns a write that touched nothing into ErrNotFound.
func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports a collision on a unique index or primary key.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
