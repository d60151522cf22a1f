package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorPrimary   = lipgloss.Color("#7f57b4")
	ColorSecondary = lipgloss.Color("#436b77")
	ColorText      = lipgloss.Color("#d7d9da")
	ColorMuted     = lipgloss.Color("#9ba0bf")
	ColorBorder    = lipgloss.Color("#273540")
	ColorDanger    = lipgloss.Color("#e06c75")
	ColorGood      = lipgloss.Color("#7ec699")
	ColorCaution   = lipgloss.Color("#ffbf3f")
)

var (
	TabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16161d")).
			Background(ColorPrimary).
			Bold(true).
			Padding(0, 1)
	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Padding(0, 1)

	SelectedStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	NormalStyle   = lipgloss.NewStyle().Foreground(ColorText)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	InputBadStyle = InputStyle.
			BorderForeground(ColorDanger)
)

// Log level colours, keyed by upper-case level name.
var levelStyles = map[string]lipgloss.Style{
	"DEBUG":    lipgloss.NewStyle().Foreground(ColorMuted),
	"INFO":     lipgloss.NewStyle().Foreground(ColorSecondary),
	"WARNING":  lipgloss.NewStyle().Foreground(lipgloss.Color("#c78854")),
	"ERROR":    lipgloss.NewStyle().Foreground(ColorDanger).Bold(true),
	"CRITICAL": lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4d6d")).Bold(true).Underline(true),
}

// levelStyle is the grid cell styler for level columns.
func levelStyle(level string) lipgloss.Style {
	if style, ok := levelStyles[level]; ok {
		return style
	}
	return NormalStyle
}

func renderLevel(level string) string {
	return levelStyle(level).Render(level)
}

// Presence markers drawn in user rows.
const (
	markOnline = "●"
	markAway   = "○"
	markNever  = "◌"
)

// presenceStyle is the grid cell styler for presence markers.
func presenceStyle(mark string) lipgloss.Style {
	switch mark {
	case markOnline:
		return lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	case markNever:
		return lipgloss.NewStyle().Foreground(ColorCaution)
	}
	return MutedStyle
}

// Divider returns a horizontal rule of width cells.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render(strings.Repeat("─", width))
}
