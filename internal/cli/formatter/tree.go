package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of the plan tree.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	// Done dims the line and prefixes a check mark.
	Done bool
	// Badge is right-aligned after the title, e.g. a health indicator.
	Badge string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree with badges aligned in one
// column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	width := 0
	for i, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}
		title := item.Title
		if item.Done {
			title = StyleGreen.Render("✔ ") + Dim(title)
		}
		contents[i] = prefix + title
		width = max(width, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Badge != "" {
			b.WriteString(strings.Repeat(" ", width-lipgloss.Width(contents[i])+2))
			b.WriteString(item.Badge)
		}
		b.WriteString("\n")
	}
	return b.String()
}
