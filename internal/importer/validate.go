package importer

import (
	"fmt"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Options controls how dependency encodings and missing dates are handled.
type Options struct {
	// StrictDependencies rejects malformed "<ref>:<kind>:<lag>" entries
	// instead of normalizing them.
	StrictDependencies bool
}

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found. Dependency refs that name
// no task are not errors; Convert reports them as warnings.
func ValidateImportSchema(schema *ImportSchema, opts Options) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	phaseRefs := make(map[string]bool)
	errs = append(errs, validatePhases(schema.Phases, phaseRefs)...)

	milestoneRefs := make(map[string]bool)
	errs = append(errs, validateMilestones(schema.Milestones, phaseRefs, milestoneRefs)...)

	errs = append(errs, validateTasks(schema.Tasks, milestoneRefs, opts)...)

	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if p.ShortID == "" {
		errs = append(errs, fmt.Errorf("project.short_id is required"))
	}
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	if p.StartDate == "" {
		errs = append(errs, fmt.Errorf("project.start_date is required"))
	} else if _, err := domain.ParseDate(p.StartDate); err != nil {
		errs = append(errs, fmt.Errorf("project.start_date: invalid date format %q (expected YYYY-MM-DD)", p.StartDate))
	}
	if p.TargetDate != nil {
		target, err := domain.ParseDate(*p.TargetDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("project.target_date: invalid date format %q (expected YYYY-MM-DD)", *p.TargetDate))
		} else if start, startErr := domain.ParseDate(p.StartDate); startErr == nil && !target.After(start) {
			errs = append(errs, fmt.Errorf("project.target_date %q must be after start_date %q", *p.TargetDate, p.StartDate))
		}
	}

	return errs
}

func validatePhases(phases []PhaseImport, refs map[string]bool) []error {
	var errs []error
	for i, ph := range phases {
		prefix := fmt.Sprintf("phases[%d]", i)
		errs = append(errs, claimRef(prefix, ph.Ref, refs)...)
		if ph.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
	}
	return errs
}

func validateMilestones(milestones []MilestoneImport, phaseRefs, refs map[string]bool) []error {
	var errs []error
	for i, m := range milestones {
		prefix := fmt.Sprintf("milestones[%d]", i)
		errs = append(errs, claimRef(prefix, m.Ref, refs)...)
		if m.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		if m.PhaseRef != nil && *m.PhaseRef != "" && !phaseRefs[*m.PhaseRef] {
			errs = append(errs, fmt.Errorf("%s.phase_ref: ref %q not found in phases", prefix, *m.PhaseRef))
		}
	}
	return errs
}

func validateTasks(tasks []TaskImport, milestoneRefs map[string]bool, opts Options) []error {
	var errs []error
	taskRefs := make(map[string]bool)

	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		errs = append(errs, claimRef(prefix, t.Ref, taskRefs)...)

		if t.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		if t.MilestoneRef != nil && *t.MilestoneRef != "" && !milestoneRefs[*t.MilestoneRef] {
			errs = append(errs, fmt.Errorf("%s.milestone_ref: ref %q not found in milestones", prefix, *t.MilestoneRef))
		}
		if t.Duration != nil && *t.Duration < 1 {
			errs = append(errs, fmt.Errorf("%s.duration must be >= 1 day (got %d)", prefix, *t.Duration))
		}
		if t.Progress != nil && (*t.Progress < 0 || *t.Progress > 100) {
			errs = append(errs, fmt.Errorf("%s.progress must be within 0-100 (got %d)", prefix, *t.Progress))
		}
		if t.Status != "" && !domain.ValidTaskStatuses[domain.TaskStatus(t.Status)] {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, t.Status))
		}
		if t.Priority != "" && !domain.ValidPriorities[domain.Priority(t.Priority)] {
			errs = append(errs, fmt.Errorf("%s.priority: invalid value %q", prefix, t.Priority))
		}

		startErrs := validateOptionalDate(prefix+".start_date", t.StartDate)
		endErrs := validateOptionalDate(prefix+".end_date", t.EndDate)
		errs = append(errs, startErrs...)
		errs = append(errs, endErrs...)
		if len(startErrs) == 0 && len(endErrs) == 0 && t.StartDate != nil && t.EndDate != nil {
			start, _ := domain.ParseDate(*t.StartDate)
			end, _ := domain.ParseDate(*t.EndDate)
			if end.Before(start) {
				errs = append(errs, fmt.Errorf("%s.end_date %q precedes start_date %q", prefix, *t.EndDate, *t.StartDate))
			}
		}

		for j, enc := range t.DependsOn {
			field := fmt.Sprintf("%s.depends_on[%d]", prefix, j)
			if opts.StrictDependencies {
				if _, err := domain.ParseDependency(enc); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", field, err))
					continue
				}
			}
			if d := domain.DecodeDependency(enc); d.PredecessorID == t.Ref && t.Ref != "" {
				errs = append(errs, fmt.Errorf("%s: task %q depends on itself", field, t.Ref))
			}
		}
	}

	return errs
}

func claimRef(prefix, ref string, refs map[string]bool) []error {
	switch {
	case ref == "":
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	case refs[ref]:
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	default:
		refs[ref] = true
		return nil
	}
}

func validateOptionalDate(field string, dateStr *string) []error {
	if dateStr == nil || *dateStr == "" {
		return nil
	}
	if _, err := domain.ParseDate(*dateStr); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *dateStr)}
	}
	return nil
}
