package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gravitrone/mirrorctl/internal/pillbox"
)

var (
	pillEditableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d7d9da")).
				Background(lipgloss.Color("#2b3340")).
				Padding(0, 1)
	pillImmutableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#9ba0bf")).
				Background(lipgloss.Color("#1f2530")).
				Padding(0, 1)
	pillPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888ba4")).
				Background(lipgloss.Color("#1f2530")).
				Italic(true).
				Padding(0, 1)
	pillCursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16161d")).
			Background(lipgloss.Color("#7f57b4")).
			Bold(true).
			Padding(0, 1)
	pillAddStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7f57b4")).
			Padding(0, 1)
	pillAddDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4a4f63")).
				Padding(0, 1)
	pillNoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4a4f63"))
)

// PillText is the plain label of a pill.
func PillText(p pillbox.Pill) string {
	label := SanitizeOneLine(p.Value)
	switch {
	case p.Pending:
		return label + " …"
	case p.Editable:
		return label + " ×"
	default:
		return label
	}
}

// Pills renders a pillbox view as wrapped pills. cursor is an index into
// v.Pills, or len(v.Pills) for the add control; pass -1 for no cursor.
func Pills(v pillbox.View, cursor int, width int) string {
	items := make([]string, 0, len(v.Pills)+1)
	for i, p := range v.Pills {
		style := pillImmutableStyle
		switch {
		case i == cursor:
			style = pillCursorStyle
		case p.Pending:
			style = pillPendingStyle
		case p.Editable:
			style = pillEditableStyle
		}
		items = append(items, style.Render(PillText(p)))
	}
	if v.Add.Visible && !v.Add.Open {
		style := pillAddStyle
		label := "+ add"
		if v.Add.Disabled {
			style = pillAddDisabledStyle
			label = "+ adding…"
		}
		if cursor == len(v.Pills) && !v.Add.Disabled {
			style = pillCursorStyle
		}
		items = append(items, style.Render(label))
	}
	if len(items) == 0 {
		return pillNoneStyle.Render("none")
	}
	return wrapPills(items, width)
}

func wrapPills(items []string, width int) string {
	if width <= 0 {
		return strings.Join(items, " ")
	}
	var lines []string
	var line []string
	lineWidth := 0
	for _, item := range items {
		w := lipgloss.Width(item)
		if lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, strings.Join(line, " "))
			line = nil
			lineWidth = 0
		}
		if lineWidth > 0 {
			lineWidth++
		}
		line = append(line, item)
		lineWidth += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return strings.Join(lines, "\n")
}
