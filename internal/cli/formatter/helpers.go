package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + strings.TrimRight(content, "\n"))
	}
	return boxStyle.Render(strings.TrimRight(content, "\n"))
}

// Titles maps task ids to display titles.
type Titles map[string]string

// TitlesOf indexes tasks by id.
func TitlesOf(tasks []*domain.Task) Titles {
	out := make(Titles, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Title
	}
	return out
}

// Of returns the title, or a shortened id for unknown tasks.
func (t Titles) Of(id string) string {
	if title, ok := t[id]; ok {
		return title
	}
	return TruncID(id)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// DateCell renders a nullable date, or a dimmed placeholder.
func DateCell(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format(domain.DateLayout)
}

// SlipCell renders a baseline variance in days: red when late, green when early.
func SlipCell(days *int) string {
	switch {
	case days == nil:
		return Dim("--")
	case *days > 0:
		return StyleRed.Render(fmt.Sprintf("+%dd", *days))
	case *days < 0:
		return StyleGreen.Render(fmt.Sprintf("%dd", *days))
	default:
		return Dim("0d")
	}
}

// StatusPill returns a colored status indicator for project status.
func StatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectPaused:
		return StyleYellow.Render("○ Paused")
	case domain.ProjectDone:
		return StyleDim.Render("✔ Done")
	case domain.ProjectArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

func TaskStatusPill(status domain.TaskStatus) string {
	switch status {
	case domain.TaskNotStarted:
		return StyleBlue.Render("○ Not started")
	case domain.TaskInProgress:
		return StyleGreen.Render("● In progress")
	case domain.TaskCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.TaskOnHold:
		return StyleYellow.Render("‖ On hold")
	case domain.TaskCancelled:
		return StyleDim.Render("✖ Cancelled")
	default:
		return StyleDim.Render(string(status))
	}
}

func PriorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityCritical:
		return StyleRed.Render("critical")
	case domain.PriorityHigh:
		return StyleOrange.Render("high")
	case domain.PriorityLow:
		return StyleDim.Render("low")
	default:
		return StylePurple.Render(string(p))
	}
}

// DependencyLabel renders "Design FS+2" style edge labels.
func DependencyLabel(d domain.Dependency, titles Titles) string {
	label := titles.Of(d.PredecessorID) + " " + string(domain.Coalesce(d.Kind, domain.FinishToStart))
	if d.LagDays != 0 {
		label += fmt.Sprintf("%+d", d.LagDays)
	}
	return label
}
