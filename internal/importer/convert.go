package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/google/uuid"
)

// WarningKind classifies a non-fatal conversion problem.
type WarningKind string

const (
	WarnUnknownDependency    WarningKind = "unknown_dependency"
	WarnUnknownParent        WarningKind = "unknown_parent"
	WarnNormalizedDependency WarningKind = "normalized_dependency"
)

// Warning is a non-fatal conversion problem. Unknown refs are dropped,
// malformed dependencies are kept in normalized form, and the rest of the
// document is imported.
type Warning struct {
	Kind    WarningKind
	TaskRef string
	Ref     string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnUnknownParent:
		return fmt.Sprintf("task %q: parent ref %q not found, ignored", w.TaskRef, w.Ref)
	case WarnNormalizedDependency:
		return fmt.Sprintf("task %q: dependency %q read as %s", w.TaskRef, w.Ref, domain.DecodeDependency(w.Ref))
	default:
		return fmt.Sprintf("task %q: dependency on unknown ref %q dropped", w.TaskRef, w.Ref)
	}
}

// Converted holds the domain objects produced from one import document.
type Converted struct {
	Project    *domain.Project
	Phases     []*domain.Phase
	Milestones []*domain.Milestone
	// Tasks are in document order; dependencies point at generated ids.
	Tasks    []*domain.Task
	Warnings []Warning
	// RefMap maps document refs to generated ids.
	RefMap map[string]string
}

// Convert transforms a validated ImportSchema into domain objects ready for
// persistence. Call ValidateImportSchema first; Convert assumes the schema is
// valid. Tasks without both dates are completed by
// scheduler.DeriveFromSingleDate anchored at today.
func Convert(schema *ImportSchema, opts Options, today time.Time) (*Converted, error) {
	now := time.Now().UTC().Truncate(time.Second)

	startDate, err := domain.ParseDate(schema.Project.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}

	project := &domain.Project{
		ID:         uuid.New().String(),
		ShortID:    strings.ToUpper(schema.Project.ShortID),
		Name:       schema.Project.Name,
		StartDate:  startDate,
		TargetDate: parseOptionalDate(schema.Project.TargetDate),
		Status:     domain.ProjectActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	out := &Converted{Project: project, RefMap: make(map[string]string)}

	phaseByRef := make(map[string]*domain.Phase, len(schema.Phases))
	for _, ph := range schema.Phases {
		phase := &domain.Phase{
			ID:         uuid.New().String(),
			ProjectID:  project.ID,
			Title:      ph.Title,
			OrderIndex: ph.Order,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		phaseByRef[ph.Ref] = phase
		out.RefMap[ph.Ref] = phase.ID
		out.Phases = append(out.Phases, phase)
	}

	milestoneByRef := make(map[string]*domain.Milestone, len(schema.Milestones))
	for _, m := range schema.Milestones {
		ms := &domain.Milestone{
			ID:         uuid.New().String(),
			ProjectID:  project.ID,
			Title:      m.Title,
			OrderIndex: m.Order,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if m.PhaseRef != nil && *m.PhaseRef != "" {
			phase, ok := phaseByRef[*m.PhaseRef]
			if !ok {
				return nil, fmt.Errorf("phase_ref %q not found for milestone %q", *m.PhaseRef, m.Ref)
			}
			ms.PhaseID = &phase.ID
			phase.MilestoneIDs = append(phase.MilestoneIDs, ms.ID)
		}
		milestoneByRef[m.Ref] = ms
		out.RefMap[m.Ref] = ms.ID
		out.Milestones = append(out.Milestones, ms)
	}

	// Task ids are assigned up front so dependencies and parents may point
	// forward in the document.
	taskIDs := make(map[string]string, len(schema.Tasks))
	for _, t := range schema.Tasks {
		taskIDs[t.Ref] = uuid.New().String()
		out.RefMap[t.Ref] = taskIDs[t.Ref]
	}

	for i, t := range schema.Tasks {
		task, warnings, err := convertTask(t, taskIDs, milestoneByRef, opts, today)
		if err != nil {
			return nil, err
		}
		task.ProjectID = project.ID
		task.OrderIndex = i + 1
		task.CreatedAt = now
		task.UpdatedAt = now
		out.Tasks = append(out.Tasks, task)
		out.Warnings = append(out.Warnings, warnings...)
	}

	return out, nil
}

func convertTask(t TaskImport, taskIDs map[string]string, milestones map[string]*domain.Milestone, opts Options, today time.Time) (*domain.Task, []Warning, error) {
	var warnings []Warning

	start := parseOptionalDate(t.StartDate)
	end := parseOptionalDate(t.EndDate)
	duration := 1
	switch {
	case t.Duration != nil:
		duration = *t.Duration
	case start != nil && end != nil:
		duration = domain.DaysBetween(*start, *end) + 1
	}
	start, end, err := scheduler.DeriveFromSingleDate(duration, start, end, today)
	if err != nil {
		return nil, nil, fmt.Errorf("task %q: %w", t.Ref, err)
	}

	task := &domain.Task{
		ID:             taskIDs[t.Ref],
		Title:          t.Title,
		Duration:       duration,
		StartDate:      start,
		EndDate:        end,
		ManualOverride: t.ManualOverride,
		Progress:       domain.Deref(t.Progress, 0),
		Status:         domain.Coalesce(domain.TaskStatus(t.Status), domain.TaskNotStarted),
		Priority:       domain.Coalesce(domain.Priority(t.Priority), domain.PriorityMedium),
		Version:        1,
	}
	task.CaptureBaseline()

	if t.MilestoneRef != nil && *t.MilestoneRef != "" {
		ms, ok := milestones[*t.MilestoneRef]
		if !ok {
			return nil, nil, fmt.Errorf("milestone_ref %q not found for task %q", *t.MilestoneRef, t.Ref)
		}
		task.MilestoneID = &ms.ID
		ms.TaskIDs = append(ms.TaskIDs, task.ID)
	}

	if t.ParentRef != nil && *t.ParentRef != "" {
		if pid, ok := taskIDs[*t.ParentRef]; ok {
			task.ParentTaskID = &pid
		} else {
			warnings = append(warnings, Warning{Kind: WarnUnknownParent, TaskRef: t.Ref, Ref: *t.ParentRef})
		}
	}

	for _, enc := range t.DependsOn {
		dep, normalized, err := decode(enc, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("task %q: %w", t.Ref, err)
		}
		predID, ok := taskIDs[dep.PredecessorID]
		if !ok {
			warnings = append(warnings, Warning{Kind: WarnUnknownDependency, TaskRef: t.Ref, Ref: dep.PredecessorID})
			continue
		}
		if normalized {
			warnings = append(warnings, Warning{Kind: WarnNormalizedDependency, TaskRef: t.Ref, Ref: enc})
		}
		dep.PredecessorID = predID
		if task.DependsOn(predID) {
			continue
		}
		task.Dependencies = append(task.Dependencies, dep)
	}

	return task, warnings, nil
}

// decode reports normalized when the lenient path had to default a field.
func decode(enc string, opts Options) (dep domain.Dependency, normalized bool, err error) {
	dep, err = domain.ParseDependency(enc)
	if err == nil || opts.StrictDependencies {
		return dep, false, err
	}
	return domain.DecodeDependency(enc), true, nil
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := domain.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
