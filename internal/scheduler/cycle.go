package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCyclicDependency is matched by every *CycleError.
var ErrCyclicDependency = errors.New("cyclic dependency")

// CycleError reports the chain that makes an edge cyclic.
//
// Path lists task ids where each element depends on the next one; the last
// element (TaskID) depends, or would depend, on the first (PredecessorID),
// which closes the cycle. A self reference has a one-element path.
type CycleError struct {
	TaskID        string
	PredecessorID string
	Path          []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s depends on %s via [%s]", ErrCyclicDependency, e.TaskID, e.PredecessorID, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// WouldCreateCycle reports whether making candidateTaskID depend on
// newPredecessorID closes a cycle.
func WouldCreateCycle(g *Graph, candidateTaskID, newPredecessorID string) bool {
	return FindCyclePath(g, candidateTaskID, newPredecessorID) != nil
}

// FindCyclePath searches from newPredecessorID along existing predecessor
// edges. If candidateTaskID is reachable, the returned chain runs from
// newPredecessorID to candidateTaskID; otherwise it is nil. Each task is
// expanded at most once, so a call costs O(V+E).
func FindCyclePath(g *Graph, candidateTaskID, newPredecessorID string) []string {
	if candidateTaskID == newPredecessorID {
		return []string{candidateTaskID}
	}

	parent := map[string]string{newPredecessorID: ""}
	stack := []string{newPredecessorID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.Incoming(node) {
			next := e.PredecessorID
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = node
			if next == candidateTaskID {
				return unwindPath(parent, next)
			}
			stack = append(stack, next)
		}
	}
	return nil
}

// unwindPath follows parent links back to the search root and returns the
// chain root-first.
func unwindPath(parent map[string]string, end string) []string {
	var rev []string
	for node := end; node != ""; node = parent[node] {
		rev = append(rev, node)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// CheckEdge returns a *CycleError when the proposed edge would close a cycle.
func CheckEdge(g *Graph, candidateTaskID, newPredecessorID string) error {
	path := FindCyclePath(g, candidateTaskID, newPredecessorID)
	if path == nil {
		return nil
	}
	return &CycleError{TaskID: candidateTaskID, PredecessorID: newPredecessorID, Path: path}
}

// ValidateAcyclic checks the whole graph, e.g. after a bulk import, and
// returns the first cycle found.
func ValidateAcyclic(g *Graph) error {
	in := make(map[string]bool, g.Len())
	for _, id := range g.order {
		in[id] = true
	}
	if err := g.findCycle(g.order, in); err != nil {
		return err
	}
	return nil
}

func (g *Graph) cycleAmong(ids []string, in map[string]bool) error {
	if err := g.findCycle(ids, in); err != nil {
		return err
	}
	return fmt.Errorf("%w: topological order incomplete", ErrCyclicDependency)
}

// findCycle is a white/gray/black depth-first search over predecessor edges.
// Reaching a gray task means the current stack closes a cycle.
func (g *Graph) findCycle(ids []string, in map[string]bool) *CycleError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(ids))
	var stack []string

	var visit func(id string) *CycleError
	visit = func(id string) *CycleError {
		color[id] = gray
		stack = append(stack, id)
		for _, e := range g.incoming[id] {
			pred := e.PredecessorID
			if !in[pred] {
				continue
			}
			switch color[pred] {
			case white:
				if cerr := visit(pred); cerr != nil {
					return cerr
				}
			case gray:
				start := 0
				for i, s := range stack {
					if s == pred {
						start = i
						break
					}
				}
				path := append([]string(nil), stack[start:]...)
				return &CycleError{TaskID: id, PredecessorID: pred, Path: path}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cerr := visit(id); cerr != nil {
				return cerr
			}
		}
	}
	return nil
}
