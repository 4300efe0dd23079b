package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/service"
)

func FormatImportResult(r *service.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n\n", StyleGreen.Render("✔ Imported"), Bold(r.Project.Name), Dim("["+r.Project.DisplayID()+"]"))
	fmt.Fprintf(&b, "  %-14s %d\n", "phases", r.PhaseCount)
	fmt.Fprintf(&b, "  %-14s %d\n", "milestones", r.MilestoneCount)
	fmt.Fprintf(&b, "  %-14s %d\n", "tasks", r.TaskCount)
	fmt.Fprintf(&b, "  %-14s %d\n", "dependencies", r.DependencyCount)

	titles := make(Titles, len(r.RefMap))
	for ref, id := range r.RefMap {
		titles[id] = ref
	}
	if len(r.Pending) > 0 {
		b.WriteString("\n" + Header("Pending") + "\n")
		for _, id := range r.Pending {
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render("…"), titles.Of(id))
		}
	}
	if len(r.Conflicts) > 0 {
		b.WriteString("\n" + Header("Override conflicts") + "\n")
		for _, c := range r.Conflicts {
			b.WriteString(FormatConflict(c, titles) + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n" + Header("Warnings") + "\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render("!"), w)
		}
	}
	return RenderBox("Import", b.String())
}
