package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/alexanderramin/cadence/internal/service"
)

// FormatEditResult renders the outcome of a schedule edit or preview.
func FormatEditResult(r *service.EditResult, titles Titles) string {
	var b strings.Builder

	verb := "Applied"
	if !r.Applied {
		verb = StyleYellowBold.Render("Preview")
	}
	kind := string(r.Kind)
	if kind == "" {
		kind = "reschedule"
	}
	fmt.Fprintf(&b, "%s %s", verb, Bold(strings.ReplaceAll(kind, "_", " ")))
	if r.TaskID != "" {
		fmt.Fprintf(&b, " on %s", titles.Of(r.TaskID))
	}
	b.WriteString("\n\n")

	deltas := r.AllDeltas()
	if len(deltas) == 0 {
		b.WriteString(Dim("No dates changed.") + "\n")
	} else {
		b.WriteString(Header(fmt.Sprintf("%d date change(s)", len(deltas))) + "\n")
		b.WriteString(FormatDeltas(deltas, titles))
	}

	if len(r.Conflicts) > 0 {
		b.WriteString("\n" + Header("Override conflicts") + "\n")
		for _, c := range r.Conflicts {
			b.WriteString(FormatConflict(c, titles) + "\n")
		}
	}
	if len(r.Pending) > 0 {
		b.WriteString("\n" + Header("Pending") + "\n")
		for _, id := range r.Pending {
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render("…"), titles.Of(id))
		}
		b.WriteString(Dim("  waiting on an undated predecessor") + "\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n" + Header("Warnings") + "\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render("!"), warningText(w, titles))
		}
	}
	return b.String()
}

// FormatDeltas renders old → new dates, one row per task.
func FormatDeltas(deltas []scheduler.Delta, titles Titles) string {
	headers := []string{"TASK", "START", "END", "SHIFT"}
	rows := make([][]string, 0, len(deltas))
	for _, d := range deltas {
		rows = append(rows, []string{
			titles.Of(d.TaskID),
			rangeCell(d.OldStart, d.NewStart),
			rangeCell(d.OldEnd, d.NewEnd),
			shiftCell(d),
		})
	}
	return RenderTable(headers, rows)
}

func rangeCell(old, updated *time.Time) string {
	if domain.SameDate(old, updated) {
		return Dim(DateCell(updated))
	}
	return Dim(DateCell(old)) + " → " + Bold(DateCell(updated))
}

func shiftCell(d scheduler.Delta) string {
	if d.OldEnd == nil || d.NewEnd == nil {
		return Dim("--")
	}
	days := domain.DaysBetween(*d.OldEnd, *d.NewEnd)
	return SlipCell(&days)
}

// FormatConflict explains which constraint a pinned task violates.
func FormatConflict(c scheduler.Conflict, titles Titles) string {
	edge := DependencyLabel(domain.Dependency{PredecessorID: c.PredecessorID, Kind: c.Kind, LagDays: c.LagDays}, titles)
	return fmt.Sprintf("  %s %s %s must be on or after %s (pinned %s) via %s",
		StyleRed.Render("✖"),
		titles.Of(c.TaskID),
		string(c.Bound),
		Bold(c.Required.Format(domain.DateLayout)),
		c.Actual.Format(domain.DateLayout),
		edge,
	)
}

func warningText(w scheduler.Warning, titles Titles) string {
	switch w.Kind {
	case scheduler.WarnDanglingReference:
		return fmt.Sprintf("%s depends on unknown task %s (ignored)", titles.Of(w.TaskID), TruncID(w.PredecessorID))
	case scheduler.WarnDuplicateEdge:
		return fmt.Sprintf("%s lists %s more than once (kept the first)", titles.Of(w.TaskID), titles.Of(w.PredecessorID))
	default:
		return w.String()
	}
}
