package service

import (
	"context"
	"database/sql"
	"sync"
	"time"
	"testing"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	db       *sql.DB
	uow      db.UnitOfWork
	projects ProjectService
	plan     PlanService
	tasks    TaskService
	schedule ScheduleService
	analysis AnalysisService
	imports  ImportService
	events   chan ScheduleEvent
	observer *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	events := make(chan ScheduleEvent, 64)
	obs := &recordingObserver{}
	pub := NewChannelPublisher(events)

	projectRepo := repository.NewSQLiteProjectRepo(database)
	phaseRepo := repository.NewSQLitePhaseRepo(database)
	milestoneRepo := repository.NewSQLiteMilestoneRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)

	return &fixture{
		db:       database,
		uow:      uow,
		projects: NewProjectService(projectRepo),
		plan:     NewPlanService(phaseRepo, milestoneRepo),
		tasks:    NewTaskService(taskRepo, projectRepo, milestoneRepo, uow, obs),
		schedule: NewScheduleService(taskRepo, uow, ScheduleOptions{MaxAttempts: 3}, pub, obs),
		analysis: NewAnalysisService(projectRepo, phaseRepo, milestoneRepo, taskRepo, scheduler.DefaultHealthConfig(), obs),
		imports: NewImportService(uow, ImportOptions{
			Today: func() time.Time { return domain.Day(2024, 3, 1) },
		}, pub, obs),
		events:   events,
		observer: obs,
	}
}

func (f *fixture) project(t *testing.T) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject("Website", testutil.WithProjectStart(domain.Day(2024, 1, 1)))
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

// task creates a task through TaskService so its dates are resolved.
func (f *fixture) task(t *testing.T, projectID, title string, duration int, deps ...domain.Dependency) *domain.Task {
	t.Helper()
	task := &domain.Task{ProjectID: projectID, Title: title, Duration: duration, Dependencies: deps}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func (f *fixture) reload(t *testing.T, id string) *domain.Task {
	t.Helper()
	got, err := f.tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return got
}

// drain returns the events published so far.
func (f *fixture) drain() []ScheduleEvent {
	var out []ScheduleEvent
	for {
		select {
		case e := <-f.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func fs(predID string) domain.Dependency {
	return domain.Dependency{PredecessorID: predID, Kind: domain.FinishToStart}
}

func date(t *time.Time) string {
	return domain.FormatDate(t)
}
