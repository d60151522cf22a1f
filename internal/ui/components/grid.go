package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	gridIndent = 2
	gridSep    = "│"
	gridRule   = "─"
	gridCross  = "┼"
)

var (
	gridLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#273540"))
	gridTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#436b77")).
			Bold(true)
	gridActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d7d9da")).
			Background(lipgloss.Color("#1f2530")).
			Bold(true)
	gridActiveSepStyle = gridLineStyle.
				Background(lipgloss.Color("#1f2530"))
)

// Column describes one grid column. A zero Width makes the column flexible:
// flexible columns share what the fixed columns leave, never going below
// MinWidth.
type Column struct {
	Title    string
	Width    int
	MinWidth int
	Right    bool
	// Style, when set, colours cells of inactive rows.
	Style func(cell string) lipgloss.Style
}

// Grid renders rows under a title line and a rule. Active is the
// highlighted row index, or -1.
type Grid struct {
	Columns []Column
	Active  int
}

// Render lays rows out to exactly width cells per line when the columns fit.
// Cells wider than their column are cut with an ellipsis.
func (g Grid) Render(rows [][]string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(g.Columns) == 0 {
		return strings.Repeat(" ", width)
	}
	widths := g.layout(width)

	lines := make([]string, 0, len(rows)+2)
	titles := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		titles[i] = SanitizeOneLine(c.Title)
	}
	lines = append(lines, g.line(titles, widths, width, -1))
	lines = append(lines, ruleLine(widths, width))
	for i, row := range rows {
		lines = append(lines, g.line(row, widths, width, i))
	}
	return strings.Join(lines, "\n")
}

func (g Grid) layout(width int) []int {
	sepW := lipgloss.Width(gridSep)
	avail := width - gridIndent - (len(g.Columns)-1)*sepW

	widths := make([]int, len(g.Columns))
	var flex []int
	for i, c := range g.Columns {
		if c.Width <= 0 {
			flex = append(flex, i)
			continue
		}
		widths[i] = c.Width
		avail -= c.Width
	}

	if len(flex) == 0 {
		last := len(widths) - 1
		widths[last] = max(1, widths[last]+avail)
		return widths
	}
	share := avail / len(flex)
	for n, i := range flex {
		w := share
		if n == len(flex)-1 {
			w = avail - share*(len(flex)-1)
		}
		widths[i] = max(w, g.Columns[i].MinWidth, 1)
	}
	return widths
}

// line renders one row; row < 0 is the title line.
func (g Grid) line(cells []string, widths []int, width, row int) string {
	active := row >= 0 && row == g.Active
	sep := gridLineStyle.Inline(true).Render(gridSep)
	if active {
		sep = gridActiveSepStyle.Inline(true).Render(gridSep)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gridIndent))
	for i, c := range g.Columns {
		if i > 0 {
			b.WriteString(sep)
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		cell := fitCell(text, widths[i], c.Right)
		switch {
		case row < 0:
			cell = gridTitleStyle.Inline(true).Render(cell)
		case active:
			cell = gridActiveStyle.Inline(true).Render(cell)
		case c.Style != nil:
			cell = c.Style(text).Inline(true).Render(cell)
		}
		b.WriteString(cell)
	}
	return padRight(b.String(), width)
}

func ruleLine(widths []int, width int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat(gridRule, w)
	}
	line := strings.Repeat(" ", gridIndent) + strings.Join(parts, gridCross)
	return gridLineStyle.Inline(true).Render(padRight(line, width))
}

func fitCell(text string, width int, right bool) string {
	text = Ellipsize(text, width)
	pad := strings.Repeat(" ", max(0, width-lipgloss.Width(text)))
	if right {
		return pad + text
	}
	return text + pad
}
