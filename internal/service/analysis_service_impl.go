package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

type analysisService struct {
	projects   repository.ProjectRepo
	phases     repository.PhaseRepo
	milestones repository.MilestoneRepo
	tasks      repository.TaskRepo
	health     scheduler.HealthConfig
	observer   UseCaseObserver
}

func NewAnalysisService(
	projects repository.ProjectRepo,
	phases repository.PhaseRepo,
	milestones repository.MilestoneRepo,
	tasks repository.TaskRepo,
	health scheduler.HealthConfig,
	observers ...UseCaseObserver,
) AnalysisService {
	return &analysisService{
		projects:   projects,
		phases:     phases,
		milestones: milestones,
		tasks:      tasks,
		health:     health,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// CriticalPath anchors undated projects at the project start date.
func (s *analysisService) CriticalPath(ctx context.Context, projectID string) (report *scheduler.CriticalPathReport, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		fields := map[string]any{"project_id": projectID}
		if report != nil {
			fields["critical"] = len(report.Path)
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "analysis.critical_path",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("looking up project: %w", err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	g, _, err := scheduler.BuildGraph(tasks)
	if err != nil {
		return nil, err
	}
	return scheduler.CriticalPath(g, project.StartDate)
}

func (s *analysisService) Health(ctx context.Context, projectID string, today time.Time) (report *scheduler.HealthReport, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		fields := map[string]any{"project_id": projectID}
		if report != nil {
			fields["status"] = string(report.Project)
			fields["score"] = report.Score
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "analysis.health",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("looking up project: %w", err)
	}
	phases, err := s.phases.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading phases: %w", err)
	}
	milestones, err := s.milestones.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading milestones: %w", err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return scheduler.Rollup(scheduler.Snapshot{
		Project:    project,
		Phases:     phases,
		Milestones: milestones,
		Tasks:      tasks,
	}, today, s.health), nil
}
