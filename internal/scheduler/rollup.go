package scheduler

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Snapshot is everything the health rollup reads for one project.
type Snapshot struct {
	Project    *domain.Project
	Phases     []*domain.Phase
	Milestones []*domain.Milestone
	Tasks      []*domain.Task
}

// GroupHealth is the derived state of a milestone or phase.
type GroupHealth struct {
	ID       string
	Title    string
	Status   domain.HealthStatus
	Progress float64 // duration-weighted, 0-100
	Start    *time.Time
	End      *time.Time
	Members  int
}

// Aggregation level used for the project score.
const (
	LevelPhases     = "phases"
	LevelMilestones = "milestones"
	LevelTasks      = "tasks"
)

// HealthReport is computed on every read and never stored.
type HealthReport struct {
	Today      time.Time
	Tasks      map[string]domain.HealthStatus
	Milestones []GroupHealth
	Phases     []GroupHealth

	Project        domain.HealthStatus
	Score          float64
	AggregatedOver string
}

// Rollup computes task, milestone, phase and project health in one pass.
//
// Cancelled tasks get a status but are left out of milestone aggregation.
// The project score aggregates phases when the project has any, otherwise
// milestones, otherwise its tasks directly.
func Rollup(s Snapshot, today time.Time, cfg HealthConfig) *HealthReport {
	today = domain.TruncateDay(today)
	report := &HealthReport{
		Today: today,
		Tasks: make(map[string]domain.HealthStatus, len(s.Tasks)),
	}

	tasks := make(map[string]*domain.Task, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks[t.ID] = t
		report.Tasks[t.ID] = TaskHealth(t, today, cfg)
	}

	milestones := make(map[string]GroupHealth, len(s.Milestones))
	for _, m := range s.Milestones {
		var members []domain.HealthStatus
		var weighted, total float64
		var start, end *time.Time
		for _, id := range m.TaskIDs {
			t, ok := tasks[id]
			if !ok || t.Status == domain.TaskCancelled {
				continue
			}
			members = append(members, report.Tasks[id])
			weighted += float64(taskProgress(t) * t.Duration)
			total += float64(t.Duration)
			start, end = widen(start, end, t.StartDate, t.EndDate)
		}
		g := GroupHealth{
			ID:      m.ID,
			Title:   m.Title,
			Status:  MilestoneHealth(members, cfg),
			Start:   start,
			End:     end,
			Members: len(members),
		}
		if total > 0 {
			g.Progress = weighted / total
		}
		milestones[m.ID] = g
		report.Milestones = append(report.Milestones, g)
	}

	for _, p := range s.Phases {
		var members []domain.HealthStatus
		var progress float64
		var start, end *time.Time
		for _, id := range p.MilestoneIDs {
			m, ok := milestones[id]
			if !ok {
				continue
			}
			members = append(members, m.Status)
			progress += m.Progress
			start, end = widen(start, end, m.Start, m.End)
		}
		g := GroupHealth{
			ID:      p.ID,
			Title:   p.Title,
			Status:  PhaseHealth(members, cfg),
			Start:   start,
			End:     end,
			Members: len(members),
		}
		if len(members) > 0 {
			g.Progress = progress / float64(len(members))
		}
		report.Phases = append(report.Phases, g)
	}

	var children []domain.HealthStatus
	switch {
	case len(report.Phases) > 0:
		report.AggregatedOver = LevelPhases
		for _, g := range report.Phases {
			children = append(children, g.Status)
		}
	case len(report.Milestones) > 0:
		report.AggregatedOver = LevelMilestones
		for _, g := range report.Milestones {
			children = append(children, g.Status)
		}
	default:
		report.AggregatedOver = LevelTasks
		for _, t := range s.Tasks {
			if t.Status != domain.TaskCancelled {
				children = append(children, report.Tasks[t.ID])
			}
		}
	}
	report.Project, report.Score = ProjectHealth(children, cfg)
	return report
}

func taskProgress(t *domain.Task) int {
	if t.IsComplete() {
		return 100
	}
	return t.Progress
}

func widen(start, end, s, e *time.Time) (*time.Time, *time.Time) {
	if s != nil && (start == nil || s.Before(*start)) {
		start = copyDate(s)
	}
	if e != nil && (end == nil || e.After(*end)) {
		end = copyDate(e)
	}
	return start, end
}
