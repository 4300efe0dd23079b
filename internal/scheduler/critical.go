package scheduler

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// TaskFloat is the scheduling window of one task.
type TaskFloat struct {
	TaskID      string
	EarlyStart  time.Time
	EarlyFinish time.Time
	LateStart   time.Time
	LateFinish  time.Time
	TotalFloat  int
	IsCritical  bool
}

// CriticalPathReport is the outcome of a forward/backward pass.
type CriticalPathReport struct {
	Tasks         []TaskFloat // topological order
	Path          []string
	ProjectStart  time.Time
	ProjectFinish time.Time

	index map[string]int
}

// Float returns the entry for one task.
func (r *CriticalPathReport) Float(id string) (TaskFloat, bool) {
	i, ok := r.index[id]
	if !ok {
		return TaskFloat{}, false
	}
	return r.Tasks[i], true
}

// CriticalIDs returns every task with no float, in topological order.
func (r *CriticalPathReport) CriticalIDs() []string {
	var ids []string
	for _, t := range r.Tasks {
		if t.IsCritical {
			ids = append(ids, t.TaskID)
		}
	}
	return ids
}

// CriticalPath runs the classic two-pass schedule over the graph.
//
// Offsets are whole days from the origin: the earliest stored start of any
// task, or anchor when nothing is dated. Tasks without incoming edges start
// at their stored start (or the origin). The forward pass applies the same
// relation math as ResolveDates; the backward pass works from the latest
// early finish against successor constraints. A task is critical when its
// total float is zero or negative.
func CriticalPath(g *Graph, anchor time.Time) (*CriticalPathReport, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	origin := domain.TruncateDay(anchor)
	first := true
	for _, id := range order {
		if s := g.Task(id).StartDate; s != nil && (first || s.Before(origin)) {
			origin = domain.TruncateDay(*s)
			first = false
		}
	}

	report := &CriticalPathReport{
		ProjectStart:  origin,
		ProjectFinish: origin,
		index:         make(map[string]int, len(order)),
	}
	if len(order) == 0 {
		return report, nil
	}

	es := make(map[string]int, len(order))
	ef := make(map[string]int, len(order))
	dur := make(map[string]int, len(order))

	for _, id := range order {
		t := g.Task(id)
		d := t.Duration
		dur[id] = d

		incoming := g.Incoming(id)
		if len(incoming) == 0 {
			if t.StartDate != nil {
				es[id] = domain.DaysBetween(origin, *t.StartDate)
			}
		} else {
			for i, e := range incoming {
				v := earliestStartVia(e, es[e.PredecessorID], ef[e.PredecessorID], d)
				if i == 0 || v > es[id] {
					es[id] = v
				}
			}
		}
		ef[id] = es[id] + d - 1
	}

	minES, finish := es[order[0]], ef[order[0]]
	for _, id := range order {
		if es[id] < minES {
			minES = es[id]
		}
		if ef[id] > finish {
			finish = ef[id]
		}
	}

	lf := make(map[string]int, len(order))
	ls := make(map[string]int, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		d := dur[id]
		late := finish
		for _, succ := range g.Dependents(id) {
			for _, e := range g.Incoming(succ) {
				if e.PredecessorID != id {
					continue
				}
				if v := latestFinishVia(e, ls[succ], lf[succ], d); v < late {
					late = v
				}
			}
		}
		lf[id] = late
		ls[id] = late - d + 1
	}

	day := func(offset int) time.Time { return domain.AddDays(origin, offset) }
	for i, id := range order {
		float := ls[id] - es[id]
		report.Tasks = append(report.Tasks, TaskFloat{
			TaskID:      id,
			EarlyStart:  day(es[id]),
			EarlyFinish: day(ef[id]),
			LateStart:   day(ls[id]),
			LateFinish:  day(lf[id]),
			TotalFloat:  float,
			IsCritical:  float <= 0,
		})
		report.index[id] = i
	}
	report.ProjectStart = day(minES)
	report.ProjectFinish = day(finish)
	report.Path = criticalChain(g, order, report, es, ef, finish)
	return report, nil
}

// earliestStartVia converts one incoming edge into a lower bound on the
// dependent's early start, given the predecessor's early start/finish.
func earliestStartVia(e Edge, predES, predEF, duration int) int {
	switch e.Kind {
	case domain.StartToStart:
		return predES + e.LagDays
	case domain.FinishToFinish:
		return predEF + e.LagDays - duration + 1
	case domain.StartToFinish:
		return predES + e.LagDays - duration + 1
	default:
		return predEF + 1 + e.LagDays
	}
}

// latestFinishVia converts an outgoing edge into an upper bound on the
// predecessor's late finish, given the successor's late start/finish.
func latestFinishVia(e Edge, succLS, succLF, duration int) int {
	switch e.Kind {
	case domain.StartToStart:
		return succLS - e.LagDays + duration - 1
	case domain.FinishToFinish:
		return succLF - e.LagDays
	case domain.StartToFinish:
		return succLF - e.LagDays + duration - 1
	default:
		return succLS - 1 - e.LagDays
	}
}

// criticalChain picks the longest run of critical tasks linked by driving
// edges (edges whose bound equals the dependent's early start) that ends on
// the project finish.
func criticalChain(g *Graph, order []string, report *CriticalPathReport, es, ef map[string]int, finish int) []string {
	critical := func(id string) bool {
		f, _ := report.Float(id)
		return f.IsCritical
	}

	length := make(map[string]int, len(order))
	prev := make(map[string]string, len(order))
	for _, id := range order {
		if !critical(id) {
			continue
		}
		length[id] = 1
		d := g.Task(id).Duration
		for _, e := range g.Incoming(id) {
			p := e.PredecessorID
			if !critical(p) || earliestStartVia(e, es[p], ef[p], d) != es[id] {
				continue
			}
			if length[p]+1 > length[id] {
				length[id] = length[p] + 1
				prev[id] = p
			}
		}
	}

	end := ""
	for _, id := range order {
		if critical(id) && ef[id] == finish && length[id] > length[end] {
			end = id
		}
	}
	if end == "" {
		return nil
	}

	var rev []string
	for id := end; id != ""; id = prev[id] {
		rev = append(rev, id)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
