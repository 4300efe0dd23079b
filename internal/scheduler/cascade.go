package scheduler

import (
	"fmt"
	"time"
)

// Reason explains why a task was recomputed during a cascade.
type Reason struct {
	// Trigger is the task whose edit started the cascade; empty for a full reschedule.
	Trigger string
	// Predecessors are the direct predecessors whose dates moved in this pass.
	Predecessors []string
}

// Delta is one proposed date change.
type Delta struct {
	TaskID   string
	OldStart *time.Time
	OldEnd   *time.Time
	NewStart *time.Time
	NewEnd   *time.Time
	Reason   Reason
}

// CascadeResult is the proposed outcome of a cascade. Nothing has been written.
type CascadeResult struct {
	TriggerID string
	Changes   []Delta
	Conflicts []Conflict
	// Pending lists tasks that could not be dated because a predecessor is undated.
	Pending []string
	// Visited lists every task that was re-resolved, in resolution order.
	Visited []string
}

// AffectedIDs returns the ids of tasks whose dates change.
func (r *CascadeResult) AffectedIDs() []string {
	ids := make([]string, 0, len(r.Changes))
	for _, d := range r.Changes {
		ids = append(ids, d.TaskID)
	}
	return ids
}

// Cascade re-resolves every transitive dependent of changedTaskID.
//
// current holds the dates to start from, including the changed task's new
// dates; nil means the dates stored on the graph's tasks. Every task, its own
// dates included, is read from current, so override conflicts reflect it. The affected
// subgraph is processed in topological order so a task is only resolved
// after all of its affected predecessors. A task is resolved only when a
// predecessor moved (or is the changed task), and at most once.
func Cascade(g *Graph, changedTaskID string, current map[string]DateRange) (*CascadeResult, error) {
	if !g.Has(changedTaskID) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, changedTaskID)
	}

	affected := map[string]bool{changedTaskID: true}
	queue := []string{changedTaskID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependents(id) {
			if !affected[dep] {
				affected[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	sub := make([]string, 0, len(affected))
	for _, id := range g.order {
		if affected[id] {
			sub = append(sub, id)
		}
	}
	order, err := g.topoOrder(sub)
	if err != nil {
		return nil, err
	}

	p := newPropagator(g, changedTaskID, current)
	p.markDependents(changedTaskID)
	for _, id := range order {
		if id == changedTaskID || !p.dirty[id] {
			continue
		}
		if err := p.resolve(id); err != nil {
			return nil, err
		}
	}
	return p.result, nil
}

// ResolveAll re-resolves every task of the graph in topological order, as
// after a bulk import or an explicit project reschedule.
func ResolveAll(g *Graph, current map[string]DateRange) (*CascadeResult, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	p := newPropagator(g, "", current)
	for _, id := range order {
		if err := p.resolve(id); err != nil {
			return nil, err
		}
	}
	return p.result, nil
}

// ApplyDeltas returns a copy of current with the deltas applied.
func ApplyDeltas(current map[string]DateRange, deltas []Delta) map[string]DateRange {
	out := make(map[string]DateRange, len(current))
	for id, r := range current {
		out[id] = r
	}
	for _, d := range deltas {
		out[d.TaskID] = DateRange{Start: d.NewStart, End: d.NewEnd}
	}
	return out
}

type propagator struct {
	g       *Graph
	trigger string
	dates   map[string]DateRange
	dirty   map[string]bool
	movedBy map[string][]string
	result  *CascadeResult
}

func newPropagator(g *Graph, trigger string, current map[string]DateRange) *propagator {
	dates := g.Dates()
	for id, r := range current {
		if g.Has(id) {
			dates[id] = r
		}
	}
	return &propagator{
		g:       g,
		trigger: trigger,
		dates:   dates,
		dirty:   make(map[string]bool),
		movedBy: make(map[string][]string),
		result:  &CascadeResult{TriggerID: trigger},
	}
}

func (p *propagator) markDependents(id string) {
	for _, dep := range p.g.Dependents(id) {
		p.dirty[dep] = true
		p.movedBy[dep] = append(p.movedBy[dep], id)
	}
}

// resolve reads the task's own dates from the snapshot, not the graph, so an
// override is checked against the dates the caller passed in current.
func (p *propagator) resolve(id string) error {
	task := *p.g.Task(id)
	task.StartDate, task.EndDate = p.dates[id].Start, p.dates[id].End
	p.result.Visited = append(p.result.Visited, id)

	res, err := ResolveDates(&task, p.g.Incoming(id), p.dates)
	if err != nil {
		return err
	}
	p.result.Conflicts = append(p.result.Conflicts, res.Conflicts...)

	if res.Pending {
		p.result.Pending = append(p.result.Pending, id)
		if p.dates[id] != (DateRange{}) {
			p.dates[id] = DateRange{}
			p.markDependents(id)
		}
		return nil
	}
	if res.ManualOverride {
		return nil
	}

	old := p.dates[id]
	next := res.Range()
	if old.Equal(next) {
		return nil
	}
	p.result.Changes = append(p.result.Changes, Delta{
		TaskID:   id,
		OldStart: old.Start,
		OldEnd:   old.End,
		NewStart: next.Start,
		NewEnd:   next.End,
		Reason:   Reason{Trigger: p.trigger, Predecessors: p.movedBy[id]},
	})
	p.dates[id] = next
	p.markDependents(id)
	return nil
}
