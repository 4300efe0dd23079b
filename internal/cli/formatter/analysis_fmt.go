package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

// FormatCriticalPath lists every dated task with its float, critical tasks
// highlighted, followed by the driving chain.
func FormatCriticalPath(r *scheduler.CriticalPathReport, titles Titles) string {
	if len(r.Tasks) == 0 {
		return Dim("Nothing to analyse: no dated tasks.") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s → %s  %s\n\n",
		Dim("window"),
		r.ProjectStart.Format(domain.DateLayout),
		Bold(r.ProjectFinish.Format(domain.DateLayout)),
		Dim(fmt.Sprintf("(%d days)", domain.DaysBetween(r.ProjectStart, r.ProjectFinish))),
	)

	headers := []string{"TASK", "EARLY", "LATE", "FLOAT", ""}
	rows := make([][]string, 0, len(r.Tasks))
	for _, f := range r.Tasks {
		title := titles.Of(f.TaskID)
		marker := ""
		if f.IsCritical {
			title = StyleRed.Render(title)
			marker = StyleRed.Render("critical")
		}
		rows = append(rows, []string{
			title,
			f.EarlyStart.Format(domain.DateLayout) + " → " + f.EarlyFinish.Format(domain.DateLayout),
			Dim(f.LateStart.Format(domain.DateLayout) + " → " + f.LateFinish.Format(domain.DateLayout)),
			fmt.Sprintf("%dd", f.TotalFloat),
			marker,
		})
	}
	b.WriteString(RenderTable(headers, rows))

	if len(r.Path) > 0 {
		names := make([]string, len(r.Path))
		for i, id := range r.Path {
			names[i] = titles.Of(id)
		}
		b.WriteString("\n" + Header("Critical path") + "\n")
		b.WriteString(strings.Join(names, StyleDim.Render(" → ")) + "\n")
	}
	return RenderBox("Critical path", b.String())
}

// FormatHealth renders the health rollup from project down to milestones.
func FormatHealth(r *scheduler.HealthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", HealthIndicator(r.Project), Dim(fmt.Sprintf("score %.1f, as of %s, over %s",
		r.Score, r.Today.Format(domain.DateLayout), r.AggregatedOver)))

	writeGroups := func(title string, groups []scheduler.GroupHealth) {
		if len(groups) == 0 {
			return
		}
		b.WriteString("\n" + Header(title) + "\n")
		headers := []string{"NAME", "HEALTH", "PROGRESS", "WINDOW", "TASKS"}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{
				g.Title,
				HealthIndicator(g.Status),
				RenderProgress(g.Progress, 12),
				DateCell(g.Start) + " → " + DateCell(g.End),
				fmt.Sprintf("%d", g.Members),
			})
		}
		b.WriteString(RenderTable(headers, rows))
	}
	writeGroups("Phases", r.Phases)
	writeGroups("Milestones", r.Milestones)

	counts := make(map[domain.HealthStatus]int)
	for _, h := range r.Tasks {
		counts[h]++
	}
	b.WriteString("\n" + Header("Tasks") + "\n")
	for _, h := range []domain.HealthStatus{domain.HealthOnTrack, domain.HealthCaution, domain.HealthAtRisk, domain.HealthCritical} {
		fmt.Fprintf(&b, "%s %d  ", HealthIndicator(h), counts[h])
	}
	b.WriteString("\n")
	return RenderBox("Health", b.String())
}
