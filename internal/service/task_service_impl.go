package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/google/uuid"
)

type taskService struct {
	tasks      repository.TaskRepo
	projects   repository.ProjectRepo
	milestones repository.MilestoneRepo
	uow        db.UnitOfWork
	observer   UseCaseObserver
}

func NewTaskService(
	tasks repository.TaskRepo,
	projects repository.ProjectRepo,
	milestones repository.MilestoneRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) TaskService {
	return &taskService{
		tasks:      tasks,
		projects:   projects,
		milestones: milestones,
		uow:        uow,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *taskService) Create(ctx context.Context, t *domain.Task) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "task.create",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields: map[string]any{
				"project_id":   t.ProjectID,
				"dependencies": len(t.Dependencies),
			},
		})
	}()

	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	project, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return fmt.Errorf("looking up project: %w", err)
	}
	if t.MilestoneID != nil {
		m, err := s.milestones.GetByID(ctx, *t.MilestoneID)
		if err != nil {
			return fmt.Errorf("looking up milestone: %w", err)
		}
		if m.ProjectID != project.ID {
			return fmt.Errorf("milestone %s belongs to another project", m.ID)
		}
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Duration == 0 {
		t.Duration = 1
	}
	if t.Status == "" {
		t.Status = domain.TaskNotStarted
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	t.Version = 1
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	existing, err := s.tasks.ListByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.ID] = true
	}
	seen := make(map[string]bool, len(t.Dependencies))
	for i, d := range t.Dependencies {
		if d.PredecessorID == t.ID {
			return &scheduler.CycleError{TaskID: t.ID, PredecessorID: t.ID, Path: []string{t.ID}}
		}
		if !known[d.PredecessorID] {
			return fmt.Errorf("predecessor %s: %w", d.PredecessorID, scheduler.ErrTaskNotFound)
		}
		if seen[d.PredecessorID] {
			return fmt.Errorf("%s -> %s: %w", d.PredecessorID, t.ID, ErrDependencyExists)
		}
		seen[d.PredecessorID] = true
		if d.Kind == "" {
			t.Dependencies[i].Kind = domain.FinishToStart
		}
	}

	if t.ManualOverride && !t.IsScheduled() {
		return fmt.Errorf("%w: an overridden task needs both dates", scheduler.ErrInvalidTask)
	}
	if t.StartDate == nil && t.EndDate == nil && len(t.Dependencies) == 0 {
		start := project.StartDate
		t.StartDate = &start
	}

	g, _, err := scheduler.BuildGraph(append(existing, t))
	if err != nil {
		return err
	}
	res, err := scheduler.ResolveDates(t, g.Incoming(t.ID), g.Dates())
	if err != nil {
		return err
	}
	t.StartDate, t.EndDate = res.Start, res.End
	t.CaptureBaseline()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if t.OrderIndex == 0 {
			seq, err := repository.NewSQLiteProjectSequenceRepo(tx).NextTaskIndex(ctx, project.ID)
			if err != nil {
				return err
			}
			t.OrderIndex = seq
		}
		if err := repository.NewSQLiteTaskRepo(tx).Create(ctx, t); err != nil {
			return fmt.Errorf("creating task %q: %w", t.Title, err)
		}
		return nil
	})
}

func (s *taskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return s.tasks.ListByProject(ctx, projectID)
}

// SetProgress moves a not-started task to in progress, and any task reaching
// 100 to completed.
func (s *taskService) SetProgress(ctx context.Context, id string, progress int) (*domain.Task, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("%w: progress must be within 0-100 (got %d)", scheduler.ErrInvalidTask, progress)
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Progress = progress
	switch {
	case progress == 100:
		t.Status = domain.TaskCompleted
	case progress > 0 && t.Status == domain.TaskNotStarted:
		t.Status = domain.TaskInProgress
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) SetStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error) {
	if !domain.ValidTaskStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", scheduler.ErrInvalidTask, status)
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = status
	if status == domain.TaskCompleted {
		t.Progress = 100
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
