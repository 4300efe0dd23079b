package scheduler

import (
	"math"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// RollupThresholds are the member ratios that push a group into a worse band.
type RollupThresholds struct {
	// AtRiskRatio: share of members at risk or worse above which the group is at risk.
	AtRiskRatio float64
	// CautionRatio: share of members not on track above which the group needs caution.
	CautionRatio float64
}

// StatusScores are the representative scores averaged at project level.
type StatusScores struct {
	OnTrack  float64
	Caution  float64
	AtRisk   float64
	Critical float64
}

// Of returns the score for a status. Unknown statuses score as critical.
func (s StatusScores) Of(h domain.HealthStatus) float64 {
	switch h {
	case domain.HealthOnTrack:
		return s.OnTrack
	case domain.HealthCaution:
		return s.Caution
	case domain.HealthAtRisk:
		return s.AtRisk
	default:
		return s.Critical
	}
}

// HealthConfig holds every tunable used by the health aggregator.
type HealthConfig struct {
	DueSoonDays     int
	DueSoonProgress int
	DueWeekDays     int
	DueWeekProgress int
	LowProgress     int

	Milestone RollupThresholds
	Phase     RollupThresholds

	CriticalPenalty float64
	AtRiskPenalty   float64
	ScoreFloor      float64
	Scores          StatusScores
}

// DefaultHealthConfig returns the stock thresholds.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		DueSoonDays:     3,
		DueSoonProgress: 80,
		DueWeekDays:     7,
		DueWeekProgress: 50,
		LowProgress:     25,
		Milestone:       RollupThresholds{AtRiskRatio: 0.30, CautionRatio: 0.50},
		Phase:           RollupThresholds{AtRiskRatio: 0.20, CautionRatio: 0.30},
		CriticalPenalty: 15,
		AtRiskPenalty:   8,
		ScoreFloor:      10,
		Scores:          StatusScores{OnTrack: 100, Caution: 75, AtRisk: 50, Critical: 25},
	}
}

// TaskHealth classifies a single task as of today.
func TaskHealth(task *domain.Task, today time.Time, cfg HealthConfig) domain.HealthStatus {
	if task.IsComplete() {
		return domain.HealthOnTrack
	}

	if task.EndDate != nil {
		daysLeft := domain.DaysBetween(domain.TruncateDay(today), *task.EndDate)
		if daysLeft < 0 {
			return domain.HealthCritical
		}
		if (daysLeft <= cfg.DueSoonDays && task.Progress < cfg.DueSoonProgress) ||
			(daysLeft <= cfg.DueWeekDays && task.Progress < cfg.DueWeekProgress) {
			return domain.HealthAtRisk
		}
	}

	if task.Progress < cfg.LowProgress {
		return domain.HealthCaution
	}
	return domain.HealthOnTrack
}

// MilestoneHealth aggregates the health of a milestone's tasks.
func MilestoneHealth(members []domain.HealthStatus, cfg HealthConfig) domain.HealthStatus {
	return rollupStatus(members, cfg.Milestone)
}

// PhaseHealth aggregates the health of a phase's milestones. Phase thresholds
// are lower than milestone ones.
func PhaseHealth(members []domain.HealthStatus, cfg HealthConfig) domain.HealthStatus {
	return rollupStatus(members, cfg.Phase)
}

func rollupStatus(members []domain.HealthStatus, th RollupThresholds) domain.HealthStatus {
	if len(members) == 0 {
		return domain.HealthOnTrack
	}

	var atRiskOrWorse, notOnTrack int
	for _, h := range members {
		if h == domain.HealthCritical {
			return domain.HealthCritical
		}
		if h.AtLeast(domain.HealthAtRisk) {
			atRiskOrWorse++
		}
		if h != domain.HealthOnTrack {
			notOnTrack++
		}
	}

	n := float64(len(members))
	switch {
	case float64(atRiskOrWorse)/n > th.AtRiskRatio:
		return domain.HealthAtRisk
	case float64(notOnTrack)/n > th.CautionRatio:
		return domain.HealthCaution
	default:
		return domain.HealthOnTrack
	}
}

// ProjectHealth averages the representative scores of the children, then
// subtracts a penalty per critical and at-risk child. The result is floored
// and mapped back onto a band.
func ProjectHealth(children []domain.HealthStatus, cfg HealthConfig) (domain.HealthStatus, float64) {
	if len(children) == 0 {
		return domain.HealthOnTrack, cfg.Scores.OnTrack
	}

	var sum, penalty float64
	for _, h := range children {
		sum += cfg.Scores.Of(h)
		switch h {
		case domain.HealthCritical:
			penalty += cfg.CriticalPenalty
		case domain.HealthAtRisk:
			penalty += cfg.AtRiskPenalty
		}
	}

	score := math.Max(sum/float64(len(children))-penalty, cfg.ScoreFloor)
	return domain.HealthFromScore(score), score
}
