package domain

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectPaused   ProjectStatus = "paused"
	ProjectDone     ProjectStatus = "done"
	ProjectArchived ProjectStatus = "archived"
)

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOnHold     TaskStatus = "on_hold"
	TaskCancelled  TaskStatus = "cancelled"
)

// ValidTaskStatuses is the canonical set of accepted task status strings.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskNotStarted: true, TaskInProgress: true, TaskCompleted: true,
	TaskOnHold: true, TaskCancelled: true,
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriorities is the canonical set of accepted priority strings.
var ValidPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true,
}

// HealthStatus is ordinal: a larger Rank is worse.
type HealthStatus string

const (
	HealthOnTrack  HealthStatus = "on_track"
	HealthCaution  HealthStatus = "caution"
	HealthAtRisk   HealthStatus = "at_risk"
	HealthCritical HealthStatus = "critical"
)

// Rank orders health statuses from best (0) to worst (3).
func (h HealthStatus) Rank() int {
	switch h {
	case HealthOnTrack:
		return 0
	case HealthCaution:
		return 1
	case HealthAtRisk:
		return 2
	case HealthCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether h is as bad as, or worse than, other.
func (h HealthStatus) AtLeast(other HealthStatus) bool {
	return h.Rank() >= other.Rank()
}

// Score band lower bounds. Scores below HealthAtRiskFloor are critical.
const (
	HealthAtRiskFloor  = 35.0
	HealthCautionFloor = 65.0
	HealthOnTrackFloor = 85.0
)

// HealthFromScore maps a numeric score onto its status band.
func HealthFromScore(score float64) HealthStatus {
	switch {
	case score >= HealthOnTrackFloor:
		return HealthOnTrack
	case score >= HealthCautionFloor:
		return HealthCaution
	case score >= HealthAtRiskFloor:
		return HealthAtRisk
	default:
		return HealthCritical
	}
}
