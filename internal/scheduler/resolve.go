package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// DateRange is a nullable start/end pair.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Dated reports whether both bounds are known.
func (r DateRange) Dated() bool {
	return r.Start != nil && r.End != nil
}

// Equal compares two ranges day by day.
func (r DateRange) Equal(o DateRange) bool {
	return domain.SameDate(r.Start, o.Start) && domain.SameDate(r.End, o.End)
}

// Bound names the side of a task a constraint applies to.
type Bound string

const (
	BoundStart Bound = "start"
	BoundEnd   Bound = "end"
)

// Conflict records a stored date that precedes the earliest date an incoming
// edge allows. It is only produced for manually overridden tasks.
type Conflict struct {
	TaskID        string
	PredecessorID string
	Kind          domain.RelationKind
	LagDays       int
	Bound         Bound
	Required      time.Time
	Actual        time.Time
}

// Resolution is the outcome of resolving one task.
type Resolution struct {
	TaskID string
	Start  *time.Time
	End    *time.Time

	// Constrained is true when the dates were computed from incoming edges.
	Constrained bool
	// Pending is true when some predecessor has no usable date yet; the
	// returned dates are the stored ones, untouched.
	Pending   bool
	PendingOn []string

	ManualOverride bool
	Conflicts      []Conflict
}

// Range returns the resolved dates as a DateRange.
func (r Resolution) Range() DateRange {
	return DateRange{Start: r.Start, End: r.End}
}

// ResolveDates computes a task's dates from its duration and incoming edges.
//
// Start-bounding candidates (FS, SS) and end-bounding candidates (FF, SF) are
// each reduced to their latest value; all of them hold at once. The free bound
// follows from the duration, day-inclusive.
func ResolveDates(task *domain.Task, incoming []Edge, predecessorDates map[string]DateRange) (Resolution, error) {
	if task == nil {
		return Resolution{}, fmt.Errorf("%w: nil task", ErrInvalidTask)
	}
	if task.Duration < 1 {
		return Resolution{}, fmt.Errorf("%w: task %s duration must be >= 1 day (got %d)", ErrInvalidTask, task.ID, task.Duration)
	}

	res := Resolution{
		TaskID:         task.ID,
		Start:          copyDate(task.StartDate),
		End:            copyDate(task.EndDate),
		ManualOverride: task.ManualOverride,
	}

	if task.ManualOverride {
		res.Conflicts = overrideConflicts(task, incoming, predecessorDates)
		return res, nil
	}

	if len(incoming) == 0 {
		res.Start, res.End = fillFromDuration(task.Duration, res.Start, res.End)
		return res, nil
	}

	var startC, endC *time.Time
	for _, e := range incoming {
		bound, date, ok := constraint(e, predecessorDates[e.PredecessorID])
		if !ok {
			res.PendingOn = append(res.PendingOn, e.PredecessorID)
			continue
		}
		if bound == BoundStart {
			startC = latest(startC, date)
		} else {
			endC = latest(endC, date)
		}
	}
	if len(res.PendingOn) > 0 {
		res.Pending = true
		return res, nil
	}

	var start time.Time
	switch {
	case startC != nil && endC != nil:
		start = *startC
		if fromEnd := domain.AddDays(*endC, -(task.Duration - 1)); fromEnd.After(start) {
			start = fromEnd
		}
	case startC != nil:
		start = *startC
	default:
		start = domain.AddDays(*endC, -(task.Duration - 1))
	}
	end := domain.AddDays(start, task.Duration-1)

	res.Start, res.End = &start, &end
	res.Constrained = true
	return res, nil
}

// constraint returns the bound and earliest date an edge imposes, or false
// when the predecessor lacks the date the relation reads.
func constraint(e Edge, pred DateRange) (Bound, time.Time, bool) {
	var anchor *time.Time
	if e.Kind.UsesPredecessorEnd() {
		anchor = pred.End
	} else {
		anchor = pred.Start
	}
	if anchor == nil {
		return "", time.Time{}, false
	}

	switch e.Kind {
	case domain.FinishToStart:
		return BoundStart, domain.AddDays(*anchor, 1+e.LagDays), true
	case domain.StartToStart:
		return BoundStart, domain.AddDays(*anchor, e.LagDays), true
	case domain.FinishToFinish, domain.StartToFinish:
		return BoundEnd, domain.AddDays(*anchor, e.LagDays), true
	default:
		return BoundStart, domain.AddDays(*anchor, 1+e.LagDays), true
	}
}

func overrideConflicts(task *domain.Task, incoming []Edge, preds map[string]DateRange) []Conflict {
	var out []Conflict
	for _, e := range incoming {
		bound, required, ok := constraint(e, preds[e.PredecessorID])
		if !ok {
			continue
		}
		actual := task.StartDate
		if bound == BoundEnd {
			actual = task.EndDate
		}
		if actual == nil || !actual.Before(required) {
			continue
		}
		out = append(out, Conflict{
			TaskID:        task.ID,
			PredecessorID: e.PredecessorID,
			Kind:          e.Kind,
			LagDays:       e.LagDays,
			Bound:         bound,
			Required:      required,
			Actual:        *actual,
		})
	}
	return out
}

// fillFromDuration keeps the start when present and derives the end from it;
// with only an end it derives the start.
func fillFromDuration(duration int, start, end *time.Time) (*time.Time, *time.Time) {
	switch {
	case start != nil:
		e := domain.AddDays(*start, duration-1)
		return start, &e
	case end != nil:
		s := domain.AddDays(*end, -(duration - 1))
		return &s, end
	default:
		return nil, nil
	}
}

// DeriveFromSingleDate is the bulk-import policy for rows that carry a
// duration but not both dates. One date derives the other; no date yields a
// single-day placeholder anchored at today. Both dates are kept as given.
func DeriveFromSingleDate(duration int, start, end *time.Time, today time.Time) (*time.Time, *time.Time, error) {
	if duration < 1 {
		return nil, nil, fmt.Errorf("%w: duration must be >= 1 day (got %d)", ErrInvalidTask, duration)
	}
	switch {
	case start != nil && end != nil:
		if end.Before(*start) {
			return nil, nil, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidTask, domain.FormatDate(end), domain.FormatDate(start))
		}
		return copyDate(start), copyDate(end), nil
	case start != nil || end != nil:
		s, e := fillFromDuration(duration, copyDate(start), copyDate(end))
		return s, e, nil
	default:
		d := domain.TruncateDay(today)
		s, e := d, d
		return &s, &e, nil
	}
}

func latest(cur *time.Time, candidate time.Time) *time.Time {
	if cur == nil || candidate.After(*cur) {
		return &candidate
	}
	return cur
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.TruncateDay(*t)
	return &d
}
