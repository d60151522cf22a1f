package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	keyCapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16161d")).
			Background(lipgloss.Color("#888ba4")).
			Bold(true).
			Padding(0, 1)
	hintDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
	hintGapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#273540"))
	statusBarStyle = lipgloss.NewStyle().
			PaddingLeft(1)
)

const hintGap = "  "

// Hint formats a key cap followed by its action, e.g. "[enter] Add".
func Hint(key, action string) string {
	return keyCapStyle.Render(key) + " " + hintDescStyle.Render(action)
}

// StatusBar joins hints on one line. When the line would exceed width,
// trailing hints are dropped and an ellipsis marks the cut.
func StatusBar(hints []string, width int) string {
	if len(hints) == 0 {
		return ""
	}
	kept := fitHints(hints, width-statusBarStyle.GetHorizontalPadding())
	line := strings.Join(kept, hintGapStyle.Render(hintGap))
	if len(kept) < len(hints) {
		line += hintGapStyle.Render(hintGap + "…")
	}
	return statusBarStyle.Render(line)
}

// fitHints returns the longest prefix of hints that fits in width together
// with the gaps and, if anything is cut, the ellipsis marker.
func fitHints(hints []string, width int) []string {
	if width <= 0 {
		return hints
	}
	gap := lipgloss.Width(hintGap)
	marker := gap + lipgloss.Width("…")

	total := 0
	for i, h := range hints {
		if i > 0 {
			total += gap
		}
		total += lipgloss.Width(h)
	}
	if total <= width {
		return hints
	}

	used := 0
	for i, h := range hints {
		w := lipgloss.Width(h)
		if i > 0 {
			w += gap
		}
		if used+w+marker > width {
			return hints[:i]
		}
		used += w
	}
	return hints
}
