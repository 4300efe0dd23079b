// Package scheduler is the date engine: it builds the dependency graph of a
// project, rejects cycles, resolves task dates, cascades changes downstream,
// computes the critical path and rolls task health up the plan hierarchy.
//
// Every function is pure over its inputs. Nothing here performs I/O or keeps
// state between calls.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/cadence/internal/domain"
)

var (
	// ErrInvalidTask is returned for input that cannot be scheduled.
	ErrInvalidTask = domain.ErrInvalidTask

	// ErrTaskNotFound is returned when an operation names a task that is not in the graph.
	ErrTaskNotFound = errors.New("task not found")
)

// Edge is an incoming dependency edge of a task.
type Edge struct {
	PredecessorID string
	Kind          domain.RelationKind
	LagDays       int
}

func edgeFrom(d domain.Dependency) Edge {
	kind := d.Kind
	if kind == "" {
		kind = domain.FinishToStart
	}
	return Edge{PredecessorID: d.PredecessorID, Kind: kind, LagDays: d.LagDays}
}

// WarningKind classifies a non-fatal graph construction problem.
type WarningKind string

const (
	WarnDanglingReference WarningKind = "dangling_reference"
	WarnDuplicateEdge     WarningKind = "duplicate_edge"
)

// Warning describes an edge that was dropped while building the graph.
type Warning struct {
	Kind          WarningKind
	TaskID        string
	PredecessorID string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s -> %s", w.Kind, w.PredecessorID, w.TaskID)
}

// Graph is the in-memory dependency graph of one project snapshot.
// It is read-only once built.
type Graph struct {
	tasks map[string]*domain.Task
	order []string // input order, used for deterministic iteration

	incoming   map[string][]Edge
	dependents map[string][]string
}

// BuildGraph assembles the graph from tasks and their dependency lists.
// Edges pointing at tasks outside the set are dropped and reported as
// warnings. Duplicate task ids and tasks that fail validation are errors.
func BuildGraph(tasks []*domain.Task) (*Graph, []Warning, error) {
	g := &Graph{
		tasks:      make(map[string]*domain.Task, len(tasks)),
		order:      make([]string, 0, len(tasks)),
		incoming:   make(map[string][]Edge, len(tasks)),
		dependents: make(map[string][]string, len(tasks)),
	}

	for i, t := range tasks {
		if t == nil {
			return nil, nil, fmt.Errorf("%w: nil task at index %d", ErrInvalidTask, i)
		}
		if err := t.Validate(); err != nil {
			return nil, nil, err
		}
		if _, dup := g.tasks[t.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate task id %s", ErrInvalidTask, t.ID)
		}
		g.tasks[t.ID] = t
		g.order = append(g.order, t.ID)
	}

	var warnings []Warning
	for _, id := range g.order {
		t := g.tasks[id]
		seen := make(map[string]bool, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if _, ok := g.tasks[dep.PredecessorID]; !ok {
				warnings = append(warnings, Warning{Kind: WarnDanglingReference, TaskID: id, PredecessorID: dep.PredecessorID})
				continue
			}
			if seen[dep.PredecessorID] {
				warnings = append(warnings, Warning{Kind: WarnDuplicateEdge, TaskID: id, PredecessorID: dep.PredecessorID})
				continue
			}
			seen[dep.PredecessorID] = true
			g.incoming[id] = append(g.incoming[id], edgeFrom(dep))
			g.dependents[dep.PredecessorID] = append(g.dependents[dep.PredecessorID], id)
		}
	}

	return g, warnings, nil
}

// Has reports whether the task is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.tasks[id]
	return ok
}

// Task returns the task with the given id, or nil.
func (g *Graph) Task(id string) *domain.Task {
	return g.tasks[id]
}

// TaskIDs returns all task ids in input order.
func (g *Graph) TaskIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Incoming returns the edges the task depends on, in declaration order.
func (g *Graph) Incoming(id string) []Edge {
	return g.incoming[id]
}

// Dependents returns the ids of tasks holding an edge to id, in input order.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// Dates returns the stored dates of every task, keyed by id.
func (g *Graph) Dates() map[string]DateRange {
	out := make(map[string]DateRange, len(g.order))
	for _, id := range g.order {
		t := g.tasks[id]
		out[id] = DateRange{Start: t.StartDate, End: t.EndDate}
	}
	return out
}

// WithEdge returns a copy of the graph in which taskID also depends on dep.
// The receiver is not modified. An edge to an unknown predecessor returns
// ErrTaskNotFound.
func (g *Graph) WithEdge(taskID string, dep domain.Dependency) (*Graph, error) {
	if !g.Has(taskID) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if !g.Has(dep.PredecessorID) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, dep.PredecessorID)
	}

	cp := &Graph{
		tasks:      g.tasks,
		order:      g.order,
		incoming:   make(map[string][]Edge, len(g.incoming)+1),
		dependents: make(map[string][]string, len(g.dependents)+1),
	}
	for id, edges := range g.incoming {
		cp.incoming[id] = append([]Edge(nil), edges...)
	}
	for id, deps := range g.dependents {
		cp.dependents[id] = append([]string(nil), deps...)
	}

	for i, e := range cp.incoming[taskID] {
		if e.PredecessorID == dep.PredecessorID {
			cp.incoming[taskID][i] = edgeFrom(dep)
			return cp, nil
		}
	}
	cp.incoming[taskID] = append(cp.incoming[taskID], edgeFrom(dep))
	cp.dependents[dep.PredecessorID] = cp.insertOrdered(cp.dependents[dep.PredecessorID], taskID)
	return cp, nil
}

// insertOrdered inserts id into ids keeping input order.
func (g *Graph) insertOrdered(ids []string, id string) []string {
	pos := make(map[string]int, len(g.order))
	for i, v := range g.order {
		pos[v] = i
	}
	out := make([]string, 0, len(ids)+1)
	inserted := false
	for _, v := range ids {
		if !inserted && pos[id] < pos[v] {
			out = append(out, id)
			inserted = true
		}
		out = append(out, v)
	}
	if !inserted {
		out = append(out, id)
	}
	return out
}

// TopologicalOrder returns every task id such that predecessors come first.
// Ties are broken by input order. A cyclic graph returns a *CycleError.
func (g *Graph) TopologicalOrder() ([]string, error) {
	return g.topoOrder(g.order)
}

// topoOrder runs Kahn's algorithm restricted to the given ids. Edges from
// tasks outside the subset are ignored.
func (g *Graph) topoOrder(ids []string) ([]string, error) {
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}

	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, e := range g.incoming[id] {
			if in[e.PredecessorID] {
				inDegree[id]++
			}
		}
	}

	// ready holds ids in the same relative order as ids.
	var ready []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		for _, succ := range g.dependents[node] {
			if !in[succ] {
				continue
			}
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = insertByPos(ready, succ, pos)
			}
		}
	}

	if len(order) != len(ids) {
		return nil, g.cycleAmong(ids, in)
	}
	return order, nil
}

func insertByPos(queue []string, id string, pos map[string]int) []string {
	i := len(queue)
	for i > 0 && pos[queue[i-1]] > pos[id] {
		i--
	}
	queue = append(queue, "")
	copy(queue[i+1:], queue[i:])
	queue[i] = id
	return queue
}
