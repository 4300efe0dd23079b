package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
)

// FormatTaskList renders the schedule table of a project in order.
func FormatTaskList(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return Dim("No tasks.") + "\n"
	}
	titles := TitlesOf(tasks)
	headers := []string{"#", "TASK", "DUR", "START", "END", "SLIP", "PROGRESS", "STATUS", "DEPENDS ON"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		title := t.Title
		if t.ManualOverride {
			title += StyleYellow.Render(" [pinned]")
		}
		deps := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			deps = append(deps, DependencyLabel(d, titles))
		}
		_, endSlip := t.Variance()
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", t.OrderIndex)),
			title,
			fmt.Sprintf("%dd", t.Duration),
			DateCell(t.StartDate),
			DateCell(t.EndDate),
			SlipCell(endSlip),
			RenderProgress(float64(t.Progress), 10),
			TaskStatusPill(t.Status),
			strings.Join(deps, ", "),
		})
	}
	return RenderTable(headers, rows)
}

// FormatTask renders one task with its ids, for `task add`.
func FormatTask(t *domain.Task) string {
	return fmt.Sprintf("Created task %s %s  %s → %s (%dd)\n",
		Bold(t.Title), TruncID(t.ID), DateCell(t.StartDate), DateCell(t.EndDate), t.Duration)
}
