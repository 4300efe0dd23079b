package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// resolveTask accepts a full task id or "<project>#<n>", where n is the
// task's sequence number inside the project.
func resolveTask(ctx context.Context, app *App, ref string) (*domain.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("task reference is required")
	}
	projectRef, seq, ok := strings.Cut(ref, "#")
	if !ok {
		return app.Tasks.GetByID(ctx, ref)
	}
	p, err := app.Projects.Resolve(ctx, projectRef)
	if err != nil {
		return nil, err
	}
	return taskBySeq(ctx, app, p.ID, seq)
}

// resolvePredecessor is resolveTask with "#<n>" shorthand for tasks in
// projectID.
func resolvePredecessor(ctx context.Context, app *App, projectID, ref string) (*domain.Task, error) {
	if rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "#"); ok {
		return taskBySeq(ctx, app, projectID, rest)
	}
	return resolveTask(ctx, app, ref)
}

func taskBySeq(ctx context.Context, app *App, projectID, seq string) (*domain.Task, error) {
	n, err := strconv.Atoi(seq)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid task number %q", seq)
	}
	tasks, err := app.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.OrderIndex == n {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no task #%d in project", n)
}

// parseDependencyFlag reads "<task>[:<kind>[:<lag>]]"; kind defaults to FS
// and lag to 0.
func parseDependencyFlag(s string) (domain.Dependency, error) {
	switch strings.Count(s, ":") {
	case 0:
		s += ":FS:0"
	case 1:
		s += ":0"
	}
	return domain.ParseDependency(s)
}

// resolveDependency parses a --dep value and swaps the task reference for
// the predecessor's id.
func resolveDependency(ctx context.Context, app *App, projectID, raw string) (domain.Dependency, error) {
	d, err := parseDependencyFlag(raw)
	if err != nil {
		return domain.Dependency{}, err
	}
	pred, err := resolvePredecessor(ctx, app, projectID, d.PredecessorID)
	if err != nil {
		return domain.Dependency{}, fmt.Errorf("dependency %q: %w", raw, err)
	}
	d.PredecessorID = pred.ID
	return d, nil
}

// resolveMilestone matches a milestone by id or case-insensitive title.
func resolveMilestone(ctx context.Context, app *App, projectID, ref string) (*domain.Milestone, error) {
	ms, err := app.Plan.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		if m.ID == ref || strings.EqualFold(m.Title, ref) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("milestone not found: %q", ref)
}

func resolvePhase(ctx context.Context, app *App, projectID, ref string) (*domain.Phase, error) {
	phases, err := app.Plan.ListPhases(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, ph := range phases {
		if ph.ID == ref || strings.EqualFold(ph.Title, ref) {
			return ph, nil
		}
	}
	return nil, fmt.Errorf("phase not found: %q", ref)
}

func parseDateFlag(name, value string) (time.Time, error) {
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func parseOptionalDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDateFlag(name, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
