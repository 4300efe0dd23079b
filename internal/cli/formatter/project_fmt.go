package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

// PlanView is everything `project show` renders.
type PlanView struct {
	Project    *domain.Project
	Phases     []*domain.Phase
	Milestones []*domain.Milestone
	Tasks      []*domain.Task
	Health     *scheduler.HealthReport
}

func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return Dim("No projects yet. Create one with `cadence project add` or `cadence import`.") + "\n"
	}
	headers := []string{"ID", "NAME", "STATUS", "START", "TARGET"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		start := p.StartDate
		rows = append(rows, []string{
			p.DisplayID(),
			Bold(p.Name),
			StatusPill(p.Status),
			DateCell(&start),
			DateCell(p.TargetDate),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// FormatProjectShow renders the project header and its plan tree.
func FormatProjectShow(v PlanView) string {
	var b strings.Builder
	p := v.Project
	start := p.StartDate
	fmt.Fprintf(&b, "%s  %s  %s\n", Bold(p.Name), Dim("["+p.DisplayID()+"]"), StatusPill(p.Status))
	fmt.Fprintf(&b, "%s %s", Dim("start"), DateCell(&start))
	if p.TargetDate != nil {
		fmt.Fprintf(&b, "   %s %s", Dim("target"), DateCell(p.TargetDate))
	}
	b.WriteString("\n")
	if v.Health != nil {
		fmt.Fprintf(&b, "%s %s %s\n", Dim("health"), HealthIndicator(v.Health.Project),
			Dim(fmt.Sprintf("(score %.0f over %s)", v.Health.Score, v.Health.AggregatedOver)))
	}
	b.WriteString("\n")

	items := planTree(v)
	if len(items) == 0 {
		b.WriteString(Dim("No tasks yet.") + "\n")
	} else {
		b.WriteString(RenderTree(items))
	}
	return RenderBox("Project", b.String())
}

func planTree(v PlanView) []TreeItem {
	tasksByMilestone := make(map[string][]*domain.Task)
	var loose []*domain.Task
	for _, t := range v.Tasks {
		if t.MilestoneID == nil {
			loose = append(loose, t)
			continue
		}
		tasksByMilestone[*t.MilestoneID] = append(tasksByMilestone[*t.MilestoneID], t)
	}
	milestonesByPhase := make(map[string][]*domain.Milestone)
	var rootMilestones []*domain.Milestone
	for _, m := range v.Milestones {
		if m.PhaseID == nil {
			rootMilestones = append(rootMilestones, m)
			continue
		}
		milestonesByPhase[*m.PhaseID] = append(milestonesByPhase[*m.PhaseID], m)
	}

	groupBadge := func(groups []scheduler.GroupHealth, id string) string {
		for _, g := range groups {
			if g.ID == id {
				return HealthIndicator(g.Status) + " " + Dim(fmt.Sprintf("%3.0f%%", g.Progress))
			}
		}
		return ""
	}
	taskItem := func(t *domain.Task, level int, last bool) TreeItem {
		badge := Dim(DateCell(t.StartDate) + " → " + DateCell(t.EndDate))
		if v.Health != nil {
			badge = HealthIndicator(v.Health.Tasks[t.ID]) + "  " + badge
		}
		return TreeItem{Title: t.Title, Level: level, IsLast: last, Done: t.IsComplete(), Badge: badge}
	}
	var items []TreeItem
	addMilestone := func(m *domain.Milestone, level int, last bool) {
		item := TreeItem{Title: StyleBlue.Render("◆ ") + m.Title, Level: level, IsLast: last}
		if v.Health != nil {
			item.Badge = groupBadge(v.Health.Milestones, m.ID)
		}
		items = append(items, item)
		tasks := tasksByMilestone[m.ID]
		for i, t := range tasks {
			items = append(items, taskItem(t, level+1, i == len(tasks)-1))
		}
	}

	for _, ph := range v.Phases {
		item := TreeItem{Title: StyleHeader.Render(ph.Title)}
		if v.Health != nil {
			item.Badge = groupBadge(v.Health.Phases, ph.ID)
		}
		items = append(items, item)
		ms := milestonesByPhase[ph.ID]
		for i, m := range ms {
			addMilestone(m, 1, i == len(ms)-1)
		}
	}
	for _, m := range rootMilestones {
		addMilestone(m, 0, false)
	}
	for i, t := range loose {
		items = append(items, taskItem(t, 0, i == len(loose)-1))
	}
	return items
}
