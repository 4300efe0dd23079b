package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

// ImportResult summarizes one persisted import document.
type ImportResult struct {
	Project         *domain.Project
	PhaseCount      int
	MilestoneCount  int
	TaskCount       int
	DependencyCount int

	// Warnings holds dropped references, already rendered.
	Warnings  []string
	Pending   []string
	Conflicts []scheduler.Conflict
	// RefMap maps document refs to generated ids.
	RefMap map[string]string
}

type ImportOptions struct {
	StrictDependencies bool
	// Today anchors rows without any date. Defaults to the current UTC day.
	Today func() time.Time
}

type importService struct {
	uow       db.UnitOfWork
	opts      ImportOptions
	publisher EventPublisher
	observer  UseCaseObserver
}

func NewImportService(
	uow db.UnitOfWork,
	opts ImportOptions,
	publisher EventPublisher,
	observers ...UseCaseObserver,
) ImportService {
	if opts.Today == nil {
		opts.Today = func() time.Time { return time.Now().UTC() }
	}
	return &importService{
		uow:       uow,
		opts:      opts,
		publisher: publisherOrNoop(publisher),
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportSchema(ctx, schema)
}

func (s *importService) ImportSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		fields := map[string]any{"short_id": schema.Project.ShortID, "tasks": len(schema.Tasks)}
		if result != nil {
			fields["project_id"] = result.Project.ID
			fields["warnings"] = len(result.Warnings)
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "import.schema",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	opts := importer.Options{StrictDependencies: s.opts.StrictDependencies}
	if errs := importer.ValidateImportSchema(schema, opts); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	conv, err := importer.Convert(schema, opts, s.opts.Today())
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	g, graphWarnings, err := scheduler.BuildGraph(conv.Tasks)
	if err != nil {
		return nil, err
	}
	if err := scheduler.ValidateAcyclic(g); err != nil {
		var cycle *scheduler.CycleError
		if errors.As(err, &cycle) {
			s.publisher.Publish(ctx, ScheduleEvent{
				Kind:      EventCycleRejected,
				ProjectID: conv.Project.ID,
				TaskID:    cycle.TaskID,
				At:        time.Now().UTC(),
				CyclePath: refPath(cycle.Path, conv.RefMap),
			})
		}
		return nil, fmt.Errorf("import rejected: %w", err)
	}
	cascade, err := scheduler.ResolveAll(g, nil)
	if err != nil {
		return nil, err
	}
	for _, d := range cascade.Changes {
		t := g.Task(d.TaskID)
		t.StartDate, t.EndDate = d.NewStart, d.NewEnd
		t.BaselineStart, t.BaselineEnd = nil, nil
		t.CaptureBaseline()
	}

	result = &ImportResult{
		Project:        conv.Project,
		PhaseCount:     len(conv.Phases),
		MilestoneCount: len(conv.Milestones),
		TaskCount:      len(conv.Tasks),
		Pending:        cascade.Pending,
		Conflicts:      cascade.Conflicts,
		RefMap:         conv.RefMap,
	}
	for _, w := range conv.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	for _, w := range graphWarnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteProjectRepo(tx).Create(ctx, conv.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		phaseRepo := repository.NewSQLitePhaseRepo(tx)
		for _, ph := range conv.Phases {
			if err := phaseRepo.Create(ctx, ph); err != nil {
				return fmt.Errorf("creating phase %q: %w", ph.Title, err)
			}
		}
		milestoneRepo := repository.NewSQLiteMilestoneRepo(tx)
		for _, m := range conv.Milestones {
			if err := milestoneRepo.Create(ctx, m); err != nil {
				return fmt.Errorf("creating milestone %q: %w", m.Title, err)
			}
		}

		first := 1
		if len(conv.Tasks) > 0 {
			var err error
			if first, err = repository.NewSQLiteProjectSequenceRepo(tx).Reserve(ctx, conv.Project.ID, len(conv.Tasks)); err != nil {
				return err
			}
		}

		// Dependencies are written once every task row exists.
		taskRepo := repository.NewSQLiteTaskRepo(tx)
		for _, t := range parentsFirst(conv.Tasks) {
			t.OrderIndex += first - 1
			row := *t
			row.Dependencies = nil
			if err := taskRepo.Create(ctx, &row); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Title, err)
			}
		}
		depRepo := repository.NewSQLiteDependencyRepo(tx)
		for _, t := range conv.Tasks {
			for _, d := range t.Dependencies {
				if err := depRepo.Create(ctx, t.ID, d); err != nil {
					return fmt.Errorf("creating dependency %s -> %s: %w", d.PredecessorID, t.ID, err)
				}
				result.DependencyCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range result.Conflicts {
		s.publisher.Publish(ctx, ScheduleEvent{Kind: EventConflict, ProjectID: conv.Project.ID, TaskID: c.TaskID, At: startedAt, Conflict: &c})
	}
	return result, nil
}

// parentsFirst orders tasks so that a parent row is inserted before its
// children. A parent chain that loops back on itself is cut at the first
// task that cannot be placed.
func parentsFirst(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	placed := make(map[string]bool, len(tasks))
	rest := tasks
	for len(rest) > 0 {
		var next []*domain.Task
		for _, t := range rest {
			if t.ParentTaskID == nil || placed[*t.ParentTaskID] {
				out = append(out, t)
				placed[t.ID] = true
			} else {
				next = append(next, t)
			}
		}
		if len(next) == len(rest) {
			next[0].ParentTaskID = nil
		}
		rest = next
	}
	return out
}

// refPath maps generated ids back to the refs of the import document.
func refPath(ids []string, refMap map[string]string) []string {
	byID := make(map[string]string, len(refMap))
	for ref, id := range refMap {
		byID[id] = ref
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if ref, ok := byID[id]; ok {
			out[i] = ref
		} else {
			out[i] = id
		}
	}
	return out
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
