package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	framePadX     = 2
	frameMinWidth = 40
	frameMaxWidth = 80
)

// frame is a rounded box with an optional title set into its top border.
type frame struct {
	border lipgloss.Color
	title  lipgloss.Style
	body   lipgloss.Style
}

var (
	plainFrame = frame{
		border: lipgloss.Color("#273540"),
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7f57b4")).Bold(true),
		body:   lipgloss.NewStyle(),
	}
	errorFrame = frame{
		border: lipgloss.Color("#7a2f3a"),
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75")).Bold(true),
		body:   lipgloss.NewStyle().Foreground(lipgloss.Color("#d6b5b5")),
	}

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#436b77")).
			Bold(true)
	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d7d9da"))
)

// frameWidth is the outer width of a box on a terminal of the given width:
// 70% of it, kept within [frameMinWidth, frameMaxWidth] and never wider than
// the terminal itself.
func frameWidth(term int) int {
	if term <= 0 {
		return 0
	}
	w := min(max(term*70/100, frameMinWidth), frameMaxWidth)
	return min(w, term)
}

// BoxContentWidth is the usable width inside a box on a terminal of the
// given width.
func BoxContentWidth(term int) int {
	return max(frameWidth(term)-2-2*framePadX, 0)
}

func (f frame) render(title, content string, term int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.border).
		Padding(1, framePadX)
	if w := frameWidth(term); w > 2 {
		style = style.Width(w - 2)
	}
	boxed := style.Render(f.body.Render(content))
	if title == "" {
		return boxed
	}
	lines := strings.Split(boxed, "\n")
	lines[0] = f.topEdge(title, lipgloss.Width(lines[0]))
	return strings.Join(lines, "\n")
}

// topEdge draws "╭─ title ───╮" at exactly width cells.
func (f frame) topEdge(title string, width int) string {
	b := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(f.border)
	inner := width - 2
	if inner < 4 {
		return edge.Render(b.TopLeft + strings.Repeat(b.Top, max(inner, 0)) + b.TopRight)
	}
	label := " " + truncateWidth(SanitizeOneLine(title), inner-3) + " "
	rest := inner - 1 - lipgloss.Width(label)
	return edge.Render(b.TopLeft+b.Top) +
		f.title.Render(label) +
		edge.Render(strings.Repeat(b.Top, max(rest, 0))+b.TopRight)
}

// TitledBox frames content with title in the top border.
func TitledBox(title, content string, term int) string {
	return plainFrame.render(title, content, term)
}

// ErrorBox frames message in the error colours.
func ErrorBox(title, message string, term int) string {
	return errorFrame.render(title, message, term)
}

// Field is one label/value line of a Details box.
type Field struct {
	Label string
	Value string
}

// Details renders fields as aligned label/value lines in a titled box.
// Labels take at most half the content width.
func Details(title string, fields []Field, term int) string {
	if len(fields) == 0 {
		return ""
	}
	inner := BoxContentWidth(term)
	labelW := 0
	for _, f := range fields {
		labelW = max(labelW, lipgloss.Width(SanitizeOneLine(f.Label)))
	}
	if inner > 0 {
		labelW = min(labelW, max(inner/2, 4))
	}
	valueW := 0
	if inner > 0 {
		valueW = max(inner-labelW-2, 4)
	}

	lines := make([]string, len(fields))
	for i, f := range fields {
		label := padRight(Ellipsize(f.Label, labelW), labelW)
		value := SanitizeOneLine(f.Value)
		if valueW > 0 {
			value = Ellipsize(value, valueW)
		}
		lines[i] = fieldLabelStyle.Render(label) + "  " + fieldValueStyle.Render(value)
	}
	return TitledBox(title, strings.Join(lines, "\n"), term)
}

// Ellipsize flattens text to one line and cuts it to width cells, marking
// the cut with "…". A width of zero or less leaves the text uncut.
func Ellipsize(text string, width int) string {
	clean := SanitizeOneLine(text)
	if width <= 0 || lipgloss.Width(clean) <= width {
		return clean
	}
	return truncateWidth(clean, width-1) + "…"
}

// truncateWidth cuts plain text to at most width terminal cells.
func truncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}

func padRight(s string, width int) string {
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}

// Indent prefixes every line of s with n spaces.
func Indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
