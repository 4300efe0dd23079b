package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedDependency is returned by the strict parser only.
var ErrMalformedDependency = errors.New("malformed dependency")

// RelationKind says which boundary of the predecessor constrains which
// boundary of the dependent task.
type RelationKind string

const (
	FinishToStart  RelationKind = "FS"
	StartToStart   RelationKind = "SS"
	FinishToFinish RelationKind = "FF"
	StartToFinish  RelationKind = "SF"
)

// RelationKinds lists every kind in canonical order.
var RelationKinds = []RelationKind{FinishToStart, StartToStart, FinishToFinish, StartToFinish}

var relationTokens = map[string]RelationKind{
	"fs": FinishToStart, "finishtostart": FinishToStart,
	"ss": StartToStart, "starttostart": StartToStart,
	"ff": FinishToFinish, "finishtofinish": FinishToFinish,
	"sf": StartToFinish, "starttofinish": StartToFinish,
}

// ParseRelationKind accepts short codes and long names in any case, with or
// without separators ("SS", "start_to_start", "Start-To-Start").
func ParseRelationKind(s string) (RelationKind, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	k, ok := relationTokens[key]
	return k, ok
}

// ConstrainsStart reports whether the relation bounds the dependent's start
// (FS, SS) rather than its end (FF, SF).
func (k RelationKind) ConstrainsStart() bool {
	return k == FinishToStart || k == StartToStart
}

// UsesPredecessorEnd reports whether the relation reads the predecessor's end
// date (FS, FF) rather than its start.
func (k RelationKind) UsesPredecessorEnd() bool {
	return k == FinishToStart || k == FinishToFinish
}

// LongName returns the spelled-out name, e.g. "FinishToStart".
func (k RelationKind) LongName() string {
	switch k {
	case FinishToStart:
		return "FinishToStart"
	case StartToStart:
		return "StartToStart"
	case FinishToFinish:
		return "FinishToFinish"
	case StartToFinish:
		return "StartToFinish"
	default:
		return string(k)
	}
}

// Dependency is an edge from a predecessor task to the task that holds it.
type Dependency struct {
	PredecessorID string
	Kind          RelationKind
	LagDays       int // negative values are leads
}

func (d Dependency) String() string { return EncodeDependency(d) }

// EncodeDependency writes "<predecessorId>:<code>:<lagDays>". An empty kind
// encodes as FS.
func EncodeDependency(d Dependency) string {
	return d.PredecessorID + ":" + string(Coalesce(d.Kind, FinishToStart)) + ":" + strconv.Itoa(d.LagDays)
}

// Link is a flat dependency row as stored: the dependent task plus its edge.
type Link struct {
	TaskID     string
	Dependency Dependency
}

// DecodeDependency never fails. An unknown relation token becomes
// FinishToStart and a missing or non-numeric lag becomes 0, so bulk imports
// keep flowing with normalized data. Use ParseDependency to reject instead.
func DecodeDependency(s string) Dependency {
	pred, kindTok, lagTok, _ := splitDependency(s)
	d := Dependency{PredecessorID: pred, Kind: FinishToStart}
	if k, ok := ParseRelationKind(kindTok); ok {
		d.Kind = k
	}
	if n, err := strconv.Atoi(strings.TrimSpace(lagTok)); err == nil {
		d.LagDays = n
	}
	return d
}

// ParseDependency is the strict counterpart of DecodeDependency.
func ParseDependency(s string) (Dependency, error) {
	pred, kindTok, lagTok, fields := splitDependency(s)
	if fields != 3 {
		return Dependency{}, fmt.Errorf("%w: %q: expected <predecessor>:<kind>:<lag>", ErrMalformedDependency, s)
	}
	if pred == "" {
		return Dependency{}, fmt.Errorf("%w: %q: predecessor is empty", ErrMalformedDependency, s)
	}
	kind, ok := ParseRelationKind(kindTok)
	if !ok {
		return Dependency{}, fmt.Errorf("%w: %q: unknown relation kind %q", ErrMalformedDependency, s, kindTok)
	}
	lag, err := strconv.Atoi(strings.TrimSpace(lagTok))
	if err != nil {
		return Dependency{}, fmt.Errorf("%w: %q: lag %q is not a whole number of days", ErrMalformedDependency, s, lagTok)
	}
	return Dependency{PredecessorID: pred, Kind: kind, LagDays: lag}, nil
}

// splitDependency takes the kind and lag from the right so predecessor ids may
// contain ':' when all three fields are present.
func splitDependency(s string) (pred, kind, lag string, fields int) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch len(parts) {
	case 1:
		return strings.TrimSpace(parts[0]), "", "", 1
	case 2:
		return strings.TrimSpace(parts[0]), parts[1], "", 2
	default:
		n := len(parts)
		return strings.TrimSpace(strings.Join(parts[:n-2], ":")), parts[n-2], parts[n-1], 3
	}
}
