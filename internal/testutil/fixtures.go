package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithTargetDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.TargetDate = &d
	}
}

func WithProjectStart(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = d
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		StartDate: domain.TruncateDay(now.AddDate(0, -1, 0)),
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestPhase(projectID, title string, order int) *domain.Phase {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Phase{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Title:      title,
		OrderIndex: order,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Milestone options
type MilestoneOption func(*domain.Milestone)

func InPhase(phaseID string) MilestoneOption {
	return func(m *domain.Milestone) {
		m.PhaseID = &phaseID
	}
}

func WithMilestoneOrder(i int) MilestoneOption {
	return func(m *domain.Milestone) {
		m.OrderIndex = i
	}
}

func NewTestMilestone(projectID, title string, opts ...MilestoneOption) *domain.Milestone {
	now := time.Now().UTC().Truncate(time.Second)
	m := &domain.Milestone{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Task options
type TaskOption func(*domain.Task)

func WithID(id string) TaskOption {
	return func(t *domain.Task) {
		t.ID = id
	}
}

func WithDuration(days int) TaskOption {
	return func(t *domain.Task) {
		t.Duration = days
	}
}

// WithDates sets both dates, normalized to midnight UTC.
func WithDates(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.StartDate = domain.DatePtr(start)
		t.EndDate = domain.DatePtr(end)
	}
}

// StartingOn sets the start and derives the end from the duration.
func StartingOn(start time.Time) TaskOption {
	return func(t *domain.Task) {
		s := domain.TruncateDay(start)
		e := domain.AddDays(s, t.Duration-1)
		t.StartDate = &s
		t.EndDate = &e
	}
}

func WithDependency(predecessorID string, kind domain.RelationKind, lag int) TaskOption {
	return func(t *domain.Task) {
		t.Dependencies = append(t.Dependencies, domain.Dependency{PredecessorID: predecessorID, Kind: kind, LagDays: lag})
	}
}

func WithMilestone(id string) TaskOption {
	return func(t *domain.Task) {
		t.MilestoneID = &id
	}
}

func WithProgress(p int) TaskOption {
	return func(t *domain.Task) {
		t.Progress = p
	}
}

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithManualOverride() TaskOption {
	return func(t *domain.Task) {
		t.ManualOverride = true
	}
}

func WithOrderIndex(i int) TaskOption {
	return func(t *domain.Task) {
		t.OrderIndex = i
	}
}

// NewTestTask builds a one-day, unscheduled, not-started task. Options apply in
// order, so WithDuration must precede StartingOn.
func NewTestTask(projectID, title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     title,
		Duration:  1,
		Status:    domain.TaskNotStarted,
		Priority:  domain.PriorityMedium,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
