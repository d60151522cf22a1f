package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridRendersExactWidth(t *testing.T) {
	g := Grid{
		Columns: []Column{
			{Title: " ", Width: 1},
			{Title: "Username", MinWidth: 8},
			{Title: "Status", Width: 12},
		},
		Active: 1,
	}
	out := g.Render([][]string{
		{"●", "alice", "online"},
		{"◌", strings.Repeat("long", 20), "awaiting first login"},
	}, 50)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Equal(t, 50, lipgloss.Width(line))
	}
	clean := SanitizeText(out)
	assert.Contains(t, clean, "Username")
	assert.Contains(t, clean, "alice")
	assert.Contains(t, clean, "awaiting fi…")
	assert.Contains(t, SanitizeText(lines[1]), "┼")
}

func TestGridLayoutSharesFlexibleWidth(t *testing.T) {
	g := Grid{Columns: []Column{{Width: 10}, {}, {}}}
	// 40 - indent 2 - 2 separators - 10 fixed leaves 26.
	assert.Equal(t, []int{10, 13, 13}, g.layout(40))

	g = Grid{Columns: []Column{{Width: 10}, {MinWidth: 20}}}
	assert.Equal(t, []int{10, 20}, g.layout(20))
}

func TestGridLayoutStretchesLastFixedColumn(t *testing.T) {
	g := Grid{Columns: []Column{{Width: 5}, {Width: 5}}}
	assert.Equal(t, []int{5, 32}, g.layout(40))
}

func TestGridCellStyleSkipsTitleAndActiveRow(t *testing.T) {
	var styled []string
	g := Grid{
		Columns: []Column{{Title: "Level", Style: func(cell string) lipgloss.Style {
			styled = append(styled, cell)
			return lipgloss.NewStyle()
		}}},
		Active: 0,
	}
	g.Render([][]string{{"ERROR"}, {"INFO"}}, 30)
	assert.Equal(t, []string{"INFO"}, styled)
}

func TestGridDegenerateInputs(t *testing.T) {
	assert.Empty(t, Grid{Columns: []Column{{Title: "x", Width: 3}}}.Render(nil, 0))
	assert.Equal(t, 10, lipgloss.Width(Grid{}.Render(nil, 10)))
}

func TestFitCell(t *testing.T) {
	assert.Equal(t, "  ab", fitCell("ab", 4, true))
	assert.Equal(t, "ab  ", fitCell("ab", 4, false))
	assert.Equal(t, "abc…", fitCell("abcdef", 4, false))
}
