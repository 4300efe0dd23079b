package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTask marks input that cannot be scheduled at all
// (missing id, non-positive duration, inverted dates).
var ErrInvalidTask = errors.New("invalid task")

type Task struct {
	ID           string
	ProjectID    string
	MilestoneID  *string
	ParentTaskID *string // display hierarchy only
	Title        string
	OrderIndex   int

	// Scheduling
	Duration       int // whole days, >= 1
	StartDate      *time.Time
	EndDate        *time.Time
	BaselineStart  *time.Time
	BaselineEnd    *time.Time
	ManualOverride bool
	Dependencies   []Dependency

	Progress int // 0-100
	Status   TaskStatus
	Priority Priority

	// Version is bumped on every write and used for optimistic updates.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields the scheduling engine relies on.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if t.Duration < 1 {
		return fmt.Errorf("%w: task %s duration must be >= 1 day (got %d)", ErrInvalidTask, t.ID, t.Duration)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("%w: task %s progress must be within 0-100 (got %d)", ErrInvalidTask, t.ID, t.Progress)
	}
	if t.Status != "" && !ValidTaskStatuses[t.Status] {
		return fmt.Errorf("%w: task %s has unknown status %q", ErrInvalidTask, t.ID, t.Status)
	}
	if t.Priority != "" && !ValidPriorities[t.Priority] {
		return fmt.Errorf("%w: task %s has unknown priority %q", ErrInvalidTask, t.ID, t.Priority)
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return fmt.Errorf("%w: task %s ends (%s) before it starts (%s)", ErrInvalidTask, t.ID,
			FormatDate(t.EndDate), FormatDate(t.StartDate))
	}
	return nil
}

// IsComplete reports whether the task counts as done for health purposes.
func (t *Task) IsComplete() bool {
	return t.Status == TaskCompleted || t.Progress >= 100
}

// IsScheduled reports whether both dates are known.
func (t *Task) IsScheduled() bool {
	return t.StartDate != nil && t.EndDate != nil
}

// CaptureBaseline snapshots the current dates as the baseline. An existing
// baseline is never overwritten.
func (t *Task) CaptureBaseline() {
	if t.BaselineStart == nil && t.StartDate != nil {
		s := *t.StartDate
		t.BaselineStart = &s
	}
	if t.BaselineEnd == nil && t.EndDate != nil {
		e := *t.EndDate
		t.BaselineEnd = &e
	}
}

// Variance returns the slip in days of start and end against the baseline.
// A positive value means the task moved later. Nil when either side is unknown.
func (t *Task) Variance() (startSlip, endSlip *int) {
	if t.BaselineStart != nil && t.StartDate != nil {
		v := DaysBetween(*t.BaselineStart, *t.StartDate)
		startSlip = &v
	}
	if t.BaselineEnd != nil && t.EndDate != nil {
		v := DaysBetween(*t.BaselineEnd, *t.EndDate)
		endSlip = &v
	}
	return startSlip, endSlip
}

// DependsOn reports whether the task already holds an edge to predecessorID.
func (t *Task) DependsOn(predecessorID string) bool {
	for _, d := range t.Dependencies {
		if d.PredecessorID == predecessorID {
			return true
		}
	}
	return false
}

// SetDates replaces both dates and records the write time.
func (t *Task) SetDates(start, end *time.Time, now time.Time) {
	t.StartDate = start
	t.EndDate = end
	t.UpdatedAt = now
}
