package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

var (
	ErrDependencyExists   = errors.New("dependency already exists")
	ErrDependencyNotFound = errors.New("dependency not found")
	// ErrConstrainedTask is returned when a start is set on a task whose
	// dates follow from its dependencies. Override the dates instead.
	ErrConstrainedTask = errors.New("task dates are driven by its dependencies")
	ErrUnknownEdit     = errors.New("unknown edit")
)

type EditKind string

const (
	EditAddDependency    EditKind = "add_dependency"
	EditRemoveDependency EditKind = "remove_dependency"
	EditSetDuration      EditKind = "set_duration"
	EditSetStart         EditKind = "set_start"
	EditOverrideDates    EditKind = "override_dates"
	EditClearOverride    EditKind = "clear_override"
)

// Edit describes one change to a task. Only the fields of its Kind are read.
type Edit struct {
	Kind   EditKind
	TaskID string

	Dependency    domain.Dependency // EditAddDependency
	PredecessorID string            // EditRemoveDependency
	Duration      int               // EditSetDuration
	Start         time.Time         // EditSetStart, EditOverrideDates
	End           time.Time         // EditOverrideDates
}

// EditResult is what an edit did, or would do for a preview.
type EditResult struct {
	ProjectID string
	TaskID    string
	Kind      EditKind

	// Trigger is the date change of the edited task itself; nil when its
	// dates did not move.
	Trigger   *scheduler.Delta
	Deltas    []scheduler.Delta
	Conflicts []scheduler.Conflict
	Pending   []string
	Warnings  []scheduler.Warning

	Applied  bool
	Attempts int
}

// AffectedIDs lists every task whose dates change, the edited task first.
func (r *EditResult) AffectedIDs() []string {
	ids := make([]string, 0, len(r.Deltas)+1)
	if r.Trigger != nil {
		ids = append(ids, r.Trigger.TaskID)
	}
	for _, d := range r.Deltas {
		ids = append(ids, d.TaskID)
	}
	return ids
}

// AllDeltas returns the trigger change followed by the cascade changes.
func (r *EditResult) AllDeltas() []scheduler.Delta {
	out := make([]scheduler.Delta, 0, len(r.Deltas)+1)
	if r.Trigger != nil {
		out = append(out, *r.Trigger)
	}
	return append(out, r.Deltas...)
}

// ScheduleOptions tunes the optimistic write loop.
type ScheduleOptions struct {
	// MaxAttempts bounds reload-and-retry on ErrStaleSnapshot. Values below 1 mean 1.
	MaxAttempts int
}

type scheduleService struct {
	tasks     repository.TaskRepo
	uow       db.UnitOfWork
	opts      ScheduleOptions
	publisher EventPublisher
	observer  UseCaseObserver
}

func NewScheduleService(
	tasks repository.TaskRepo,
	uow db.UnitOfWork,
	opts ScheduleOptions,
	publisher EventPublisher,
	observers ...UseCaseObserver,
) ScheduleService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &scheduleService{
		tasks:     tasks,
		uow:       uow,
		opts:      opts,
		publisher: publisherOrNoop(publisher),
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *scheduleService) AddDependency(ctx context.Context, taskID string, dep domain.Dependency) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditAddDependency, TaskID: taskID, Dependency: dep}, true)
}

func (s *scheduleService) RemoveDependency(ctx context.Context, taskID, predecessorID string) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditRemoveDependency, TaskID: taskID, PredecessorID: predecessorID}, true)
}

func (s *scheduleService) SetDuration(ctx context.Context, taskID string, days int) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditSetDuration, TaskID: taskID, Duration: days}, true)
}

func (s *scheduleService) SetStart(ctx context.Context, taskID string, start time.Time) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditSetStart, TaskID: taskID, Start: start}, true)
}

func (s *scheduleService) OverrideDates(ctx context.Context, taskID string, start, end time.Time) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditOverrideDates, TaskID: taskID, Start: start, End: end}, true)
}

func (s *scheduleService) ClearOverride(ctx context.Context, taskID string) (*EditResult, error) {
	return s.edit(ctx, Edit{Kind: EditClearOverride, TaskID: taskID}, true)
}

func (s *scheduleService) PreviewCascade(ctx context.Context, e Edit) (*EditResult, error) {
	return s.edit(ctx, e, false)
}

func (s *scheduleService) Reschedule(ctx context.Context, projectID string) (result *EditResult, err error) {
	startedAt := time.Now().UTC()
	attempts := 0
	defer func() {
		fields := map[string]any{"project_id": projectID, "attempts": attempts}
		if result != nil {
			fields["changed"] = len(result.Deltas)
			fields["pending"] = len(result.Pending)
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "schedule.reschedule",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	err = s.retry(&attempts, func() error {
		var attemptErr error
		result, attemptErr = s.rescheduleOnce(ctx, projectID)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	result.Attempts = attempts
	s.publish(ctx, result)
	return result, nil
}

func (s *scheduleService) rescheduleOnce(ctx context.Context, projectID string) (*EditResult, error) {
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	g, warnings, err := scheduler.BuildGraph(tasks)
	if err != nil {
		return nil, err
	}
	cascade, err := scheduler.ResolveAll(g, nil)
	if err != nil {
		return nil, err
	}

	result := &EditResult{
		ProjectID: projectID,
		Deltas:    cascade.Changes,
		Conflicts: cascade.Conflicts,
		Pending:   cascade.Pending,
		Warnings:  warnings,
	}
	versions := versionsOf(tasks)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return applyDeltas(ctx, repository.NewSQLiteTaskRepo(tx), cascade.Changes, versions)
	})
	if err != nil {
		return nil, err
	}
	result.Applied = true
	return result, nil
}

// edit runs one edit with reload-and-retry on stale snapshots.
func (s *scheduleService) edit(ctx context.Context, e Edit, persist bool) (result *EditResult, err error) {
	startedAt := time.Now().UTC()
	attempts := 0
	name := "schedule." + string(e.Kind)
	if !persist {
		name = "schedule.preview." + string(e.Kind)
	}
	defer func() {
		fields := map[string]any{"task_id": e.TaskID, "attempts": attempts}
		if result != nil {
			fields["affected"] = len(result.AffectedIDs())
			fields["conflicts"] = len(result.Conflicts)
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	err = s.retry(&attempts, func() error {
		var attemptErr error
		result, attemptErr = s.editOnce(ctx, e, persist)
		return attemptErr
	})
	if err != nil {
		var cycle *scheduler.CycleError
		if persist && errors.As(err, &cycle) {
			s.publisher.Publish(ctx, ScheduleEvent{
				Kind:      EventCycleRejected,
				TaskID:    cycle.TaskID,
				At:        time.Now().UTC(),
				CyclePath: cycle.Path,
			})
		}
		return nil, err
	}
	result.Attempts = attempts
	if persist {
		s.publish(ctx, result)
	}
	return result, nil
}

func (s *scheduleService) retry(attempts *int, fn func() error) error {
	var err error
	for *attempts < s.opts.MaxAttempts {
		*attempts++
		err = fn()
		if !errors.Is(err, repository.ErrStaleSnapshot) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", *attempts, err)
}

func (s *scheduleService) editOnce(ctx context.Context, e Edit, persist bool) (*EditResult, error) {
	target, err := s.tasks.GetByID(ctx, e.TaskID)
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}
	tasks, err := s.tasks.ListByProject(ctx, target.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	versions := versionsOf(tasks)

	var task *domain.Task
	for _, t := range tasks {
		if t.ID == e.TaskID {
			task = t
			break
		}
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", e.TaskID, repository.ErrStaleSnapshot)
	}
	before := scheduler.DateRange{Start: task.StartDate, End: task.EndDate}

	g, warnings, err := applyEdit(e, task, tasks)
	if err != nil {
		return nil, err
	}

	res, err := scheduler.ResolveDates(task, g.Incoming(task.ID), g.Dates())
	if err != nil {
		return nil, err
	}
	task.StartDate, task.EndDate = res.Start, res.End

	result := &EditResult{
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Kind:      e.Kind,
		Conflicts: res.Conflicts,
		Warnings:  warnings,
	}
	var current map[string]scheduler.DateRange
	if res.Pending {
		result.Pending = append(result.Pending, task.ID)
		current = map[string]scheduler.DateRange{task.ID: {}}
	}
	if after := res.Range(); !before.Equal(after) {
		result.Trigger = &scheduler.Delta{
			TaskID:   task.ID,
			OldStart: before.Start,
			OldEnd:   before.End,
			NewStart: after.Start,
			NewEnd:   after.End,
			Reason:   scheduler.Reason{Trigger: task.ID},
		}
	}

	cascade, err := scheduler.Cascade(g, task.ID, current)
	if err != nil {
		return nil, err
	}
	result.Deltas = cascade.Changes
	result.Conflicts = append(result.Conflicts, cascade.Conflicts...)
	result.Pending = append(result.Pending, cascade.Pending...)

	if !persist {
		return result, nil
	}

	task.CaptureBaseline()
	task.UpdatedAt = time.Now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		taskRepo := repository.NewSQLiteTaskRepo(tx)
		depRepo := repository.NewSQLiteDependencyRepo(tx)

		if err := taskRepo.Update(ctx, task); err != nil {
			return err
		}
		switch e.Kind {
		case EditAddDependency:
			if err := depRepo.Create(ctx, task.ID, task.Dependencies[len(task.Dependencies)-1]); err != nil {
				return fmt.Errorf("creating dependency: %w", err)
			}
		case EditRemoveDependency:
			if err := depRepo.Delete(ctx, task.ID, e.PredecessorID); err != nil {
				return fmt.Errorf("removing dependency: %w", err)
			}
		}
		return applyDeltas(ctx, taskRepo, cascade.Changes, versions)
	})
	if err != nil {
		return nil, err
	}
	result.Applied = true
	return result, nil
}

// applyEdit mutates task according to e and returns the graph to resolve
// against. tasks is the project snapshot that contains task.
func applyEdit(e Edit, task *domain.Task, tasks []*domain.Task) (*scheduler.Graph, []scheduler.Warning, error) {
	g, warnings, err := scheduler.BuildGraph(tasks)
	if err != nil {
		return nil, nil, err
	}

	switch e.Kind {
	case EditAddDependency:
		dep := e.Dependency
		if dep.Kind == "" {
			dep.Kind = domain.FinishToStart
		}
		if !g.Has(dep.PredecessorID) {
			return nil, nil, fmt.Errorf("predecessor %s: %w", dep.PredecessorID, scheduler.ErrTaskNotFound)
		}
		if task.DependsOn(dep.PredecessorID) {
			return nil, nil, fmt.Errorf("%s -> %s: %w", dep.PredecessorID, task.ID, ErrDependencyExists)
		}
		if err := scheduler.CheckEdge(g, task.ID, dep.PredecessorID); err != nil {
			return nil, nil, err
		}
		g, err = g.WithEdge(task.ID, dep)
		if err != nil {
			return nil, nil, err
		}
		task.Dependencies = append(task.Dependencies, dep)

	case EditRemoveDependency:
		if !task.DependsOn(e.PredecessorID) {
			return nil, nil, fmt.Errorf("%s -> %s: %w", e.PredecessorID, task.ID, ErrDependencyNotFound)
		}
		kept := task.Dependencies[:0]
		for _, d := range task.Dependencies {
			if d.PredecessorID != e.PredecessorID {
				kept = append(kept, d)
			}
		}
		task.Dependencies = kept
		g, warnings, err = scheduler.BuildGraph(tasks)
		if err != nil {
			return nil, nil, err
		}

	case EditSetDuration:
		if e.Duration < 1 {
			return nil, nil, fmt.Errorf("%w: duration must be >= 1 day (got %d)", scheduler.ErrInvalidTask, e.Duration)
		}
		task.Duration = e.Duration
		if task.ManualOverride && task.StartDate != nil {
			end := domain.AddDays(*task.StartDate, e.Duration-1)
			task.EndDate = &end
		}

	case EditSetStart:
		if !task.ManualOverride && len(g.Incoming(task.ID)) > 0 {
			return nil, nil, fmt.Errorf("task %s: %w", task.ID, ErrConstrainedTask)
		}
		start := domain.TruncateDay(e.Start)
		end := domain.AddDays(start, task.Duration-1)
		task.StartDate, task.EndDate = &start, &end

	case EditOverrideDates:
		start, end := domain.TruncateDay(e.Start), domain.TruncateDay(e.End)
		if end.Before(start) {
			return nil, nil, fmt.Errorf("%w: end %s precedes start %s", scheduler.ErrInvalidTask,
				end.Format(domain.DateLayout), start.Format(domain.DateLayout))
		}
		task.ManualOverride = true
		task.StartDate, task.EndDate = &start, &end
		task.Duration = domain.DaysBetween(start, end) + 1

	case EditClearOverride:
		task.ManualOverride = false

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownEdit, e.Kind)
	}
	return g, warnings, nil
}

func applyDeltas(ctx context.Context, tasks repository.TaskRepo, deltas []scheduler.Delta, versions map[string]int) error {
	for _, d := range deltas {
		if err := tasks.ApplyDateUpdate(ctx, d.TaskID, d.NewStart, d.NewEnd, versions[d.TaskID]); err != nil {
			return err
		}
	}
	return nil
}

func versionsOf(tasks []*domain.Task) map[string]int {
	out := make(map[string]int, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Version
	}
	return out
}

func (s *scheduleService) publish(ctx context.Context, r *EditResult) {
	now := time.Now().UTC()
	for _, d := range r.AllDeltas() {
		s.publisher.Publish(ctx, ScheduleEvent{Kind: EventDatesChanged, ProjectID: r.ProjectID, TaskID: d.TaskID, At: now, Delta: &d})
	}
	for _, c := range r.Conflicts {
		s.publisher.Publish(ctx, ScheduleEvent{Kind: EventConflict, ProjectID: r.ProjectID, TaskID: c.TaskID, At: now, Conflict: &c})
	}
	for _, id := range r.Pending {
		s.publisher.Publish(ctx, ScheduleEvent{Kind: EventPending, ProjectID: r.ProjectID, TaskID: id, At: now})
	}
	for _, w := range r.Warnings {
		s.publisher.Publish(ctx, ScheduleEvent{Kind: EventGraphWarning, ProjectID: r.ProjectID, TaskID: w.TaskID, At: now, Warning: &w})
	}
}
