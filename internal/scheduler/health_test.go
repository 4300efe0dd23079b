package scheduler

import (
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
)

var healthToday = time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)

func dueTask(end *time.Time, progress int) *domain.Task {
	t := newTask("t", 1)
	t.EndDate = end
	t.Progress = progress
	return t
}

func TestTaskHealth(t *testing.T) {
	cfg := DefaultHealthConfig()

	completedLate := dueTask(day(2024, 6, 1), 40)
	completedLate.Status = domain.TaskCompleted

	cases := []struct {
		name string
		task *domain.Task
		want domain.HealthStatus
	}{
		{"completed status wins over overdue", completedLate, domain.HealthOnTrack},
		{"full progress wins over overdue", dueTask(day(2024, 6, 1), 100), domain.HealthOnTrack},
		{"overdue", dueTask(day(2024, 6, 9), 50), domain.HealthCritical},
		{"due in 2 days under 80%", dueTask(day(2024, 6, 12), 70), domain.HealthAtRisk},
		{"due in 2 days at 85%", dueTask(day(2024, 6, 12), 85), domain.HealthOnTrack},
		{"due today nearly done", dueTask(day(2024, 6, 10), 90), domain.HealthOnTrack},
		{"due in 5 days under 50%", dueTask(day(2024, 6, 15), 40), domain.HealthAtRisk},
		{"due in 5 days at 60%", dueTask(day(2024, 6, 15), 60), domain.HealthOnTrack},
		{"far away barely started", dueTask(day(2024, 6, 30), 10), domain.HealthCaution},
		{"far away underway", dueTask(day(2024, 6, 30), 30), domain.HealthOnTrack},
		{"no end date, not started", dueTask(nil, 0), domain.HealthCaution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TaskHealth(tc.task, healthToday, cfg))
		})
	}
}

func statuses(counts map[domain.HealthStatus]int) []domain.HealthStatus {
	var out []domain.HealthStatus
	for _, h := range []domain.HealthStatus{domain.HealthOnTrack, domain.HealthCaution, domain.HealthAtRisk, domain.HealthCritical} {
		for i := 0; i < counts[h]; i++ {
			out = append(out, h)
		}
	}
	return out
}

func TestMilestoneHealth_FourOfTenOverdueIsCritical(t *testing.T) {
	cfg := DefaultHealthConfig()

	var members []domain.HealthStatus
	for i := 0; i < 10; i++ {
		task := dueTask(day(2024, 7, 30), 50)
		if i < 4 {
			task = dueTask(day(2024, 6, 1), 20)
		}
		members = append(members, TaskHealth(task, healthToday, cfg))
	}
	assert.Equal(t, domain.HealthCritical, MilestoneHealth(members, cfg))
}

func TestMilestoneHealth_Thresholds(t *testing.T) {
	cfg := DefaultHealthConfig()

	assert.Equal(t, domain.HealthOnTrack, MilestoneHealth(nil, cfg))
	assert.Equal(t, domain.HealthAtRisk, MilestoneHealth(statuses(map[domain.HealthStatus]int{
		domain.HealthOnTrack: 6, domain.HealthAtRisk: 4,
	}), cfg))
	assert.Equal(t, domain.HealthOnTrack, MilestoneHealth(statuses(map[domain.HealthStatus]int{
		domain.HealthOnTrack: 7, domain.HealthAtRisk: 3,
	}), cfg), "exactly 30% is not above the threshold")
	assert.Equal(t, domain.HealthCaution, MilestoneHealth(statuses(map[domain.HealthStatus]int{
		domain.HealthOnTrack: 4, domain.HealthCaution: 6,
	}), cfg))
}

func TestPhaseHealth_IsMoreSensitiveThanMilestone(t *testing.T) {
	cfg := DefaultHealthConfig()
	oneOfFour := statuses(map[domain.HealthStatus]int{domain.HealthOnTrack: 3, domain.HealthAtRisk: 1})

	assert.Equal(t, domain.HealthOnTrack, MilestoneHealth(oneOfFour, cfg))
	assert.Equal(t, domain.HealthAtRisk, PhaseHealth(oneOfFour, cfg))

	cautious := statuses(map[domain.HealthStatus]int{domain.HealthOnTrack: 6, domain.HealthCaution: 4})
	assert.Equal(t, domain.HealthOnTrack, MilestoneHealth(cautious, cfg))
	assert.Equal(t, domain.HealthCaution, PhaseHealth(cautious, cfg))

	assert.Equal(t, domain.HealthCritical, PhaseHealth([]domain.HealthStatus{domain.HealthOnTrack, domain.HealthCritical}, cfg))
}

func TestProjectHealth_PenaltyAfterAverage(t *testing.T) {
	cfg := DefaultHealthConfig()

	status, score := ProjectHealth([]domain.HealthStatus{domain.HealthOnTrack, domain.HealthOnTrack, domain.HealthCritical}, cfg)
	assert.InDelta(t, 60.0, score, 0.001)
	assert.Equal(t, domain.HealthAtRisk, status)

	status, score = ProjectHealth([]domain.HealthStatus{domain.HealthAtRisk, domain.HealthOnTrack}, cfg)
	assert.InDelta(t, 67.0, score, 0.001)
	assert.Equal(t, domain.HealthCaution, status)

	status, score = ProjectHealth([]domain.HealthStatus{domain.HealthCritical, domain.HealthCritical, domain.HealthCritical}, cfg)
	assert.Equal(t, 10.0, score, "score is floored")
	assert.Equal(t, domain.HealthCritical, status)

	status, score = ProjectHealth(nil, cfg)
	assert.Equal(t, domain.HealthOnTrack, status)
	assert.Equal(t, 100.0, score)
}

func TestProjectHealth_PenaltiesAreConfigurable(t *testing.T) {
	cfg := DefaultHealthConfig()
	cfg.CriticalPenalty = 0

	status, score := ProjectHealth([]domain.HealthStatus{domain.HealthOnTrack, domain.HealthOnTrack, domain.HealthCritical}, cfg)
	assert.InDelta(t, 75.0, score, 0.001)
	assert.Equal(t, domain.HealthCaution, status)
}
