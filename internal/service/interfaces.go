package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve accepts a short id (case-insensitive) or a full project id.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type PlanService interface {
	AddPhase(ctx context.Context, ph *domain.Phase) error
	AddMilestone(ctx context.Context, m *domain.Milestone) error
	ListPhases(ctx context.Context, projectID string) ([]*domain.Phase, error)
	ListMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error)
}

type TaskService interface {
	// Create dates the task from its dependencies, or from the project start
	// when it has none, and records the baseline.
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	SetProgress(ctx context.Context, id string, progress int) (*domain.Task, error)
	SetStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error)
}

// ScheduleService performs every edit that can move dates. Each call loads a
// fresh project snapshot, runs the engine and applies the outcome in one
// transaction.
type ScheduleService interface {
	AddDependency(ctx context.Context, taskID string, dep domain.Dependency) (*EditResult, error)
	RemoveDependency(ctx context.Context, taskID, predecessorID string) (*EditResult, error)
	SetDuration(ctx context.Context, taskID string, days int) (*EditResult, error)
	SetStart(ctx context.Context, taskID string, start time.Time) (*EditResult, error)
	OverrideDates(ctx context.Context, taskID string, start, end time.Time) (*EditResult, error)
	ClearOverride(ctx context.Context, taskID string) (*EditResult, error)
	// PreviewCascade runs an edit without writing anything.
	PreviewCascade(ctx context.Context, edit Edit) (*EditResult, error)
	Reschedule(ctx context.Context, projectID string) (*EditResult, error)
}

type AnalysisService interface {
	CriticalPath(ctx context.Context, projectID string) (*scheduler.CriticalPathReport, error)
	Health(ctx context.Context, projectID string, today time.Time) (*scheduler.HealthReport, error)
}

type ImportService interface {
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
