package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write collides with a unique key.
	ErrDuplicate = errors.New("already exists")

	// ErrStaleSnapshot is returned by versioned writes when the row changed
	// since it was read.
	ErrStaleSnapshot = errors.New("stale snapshot")
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type PhaseRepo interface {
	Create(ctx context.Context, ph *domain.Phase) error
	GetByID(ctx context.Context, id string) (*domain.Phase, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Phase, error)
	Delete(ctx context.Context, id string) error
}

type MilestoneRepo interface {
	Create(ctx context.Context, m *domain.Milestone) error
	GetByID(ctx context.Context, id string) (*domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	Update(ctx context.Context, m *domain.Milestone) error
	Delete(ctx context.Context, id string) error
}

// TaskRepo reads tasks together with their ordered dependency lists. Writes
// other than Create are versioned: they fail with ErrStaleSnapshot when the
// stored version differs from the one the caller read.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	ApplyDateUpdate(ctx context.Context, id string, start, end *time.Time, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, taskID string, d domain.Dependency) error
	Delete(ctx context.Context, taskID, predecessorID string) error
	ListPredecessors(ctx context.Context, taskID string) ([]domain.Dependency, error)
	ListSuccessors(ctx context.Context, taskID string) ([]string, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Link, error)
}

type SequenceRepo interface {
	NextTaskIndex(ctx context.Context, projectID string) (int, error)
	Reserve(ctx context.Context, projectID string, n int) (int, error)
}
