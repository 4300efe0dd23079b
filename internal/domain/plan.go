package domain

import "time"

// Phase groups milestones. Its progress and date range are always derived.
type Phase struct {
	ID           string
	ProjectID    string
	Title        string
	OrderIndex   int
	MilestoneIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Milestone groups tasks. PhaseID is nil when the project has no phases or
// the milestone sits directly under the project.
type Milestone struct {
	ID         string
	ProjectID  string
	PhaseID    *string
	Title      string
	OrderIndex int
	TaskIDs    []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
