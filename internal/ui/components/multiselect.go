package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	multiCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7f57b4")).
				Bold(true)
	multiCheckedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d1606b")).
				Bold(true)
	multiOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d7d9da"))
	multiMutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
)

// MultiSelect is a checkbox list whose options can grow over time.
type MultiSelect struct {
	Label    string
	options  []string
	selected map[string]bool
	cursor   int
}

// NewMultiSelect creates a multiselect with the given options.
func NewMultiSelect(label string, options ...string) *MultiSelect {
	m := &MultiSelect{Label: label, selected: map[string]bool{}}
	m.AddOptions(options...)
	return m
}

// AddOptions appends options not yet present. Reports whether any were new.
func (m *MultiSelect) AddOptions(options ...string) bool {
	added := false
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" || m.Has(opt) {
			continue
		}
		m.options = append(m.options, opt)
		added = true
	}
	return added
}

// SortOptions orders options alphabetically, keeping the cursor on the
// same option.
func (m *MultiSelect) SortOptions() {
	current := m.Current()
	sort.Strings(m.options)
	for i, opt := range m.options {
		if opt == current {
			m.cursor = i
			break
		}
	}
}

// Has reports whether opt is an option.
func (m *MultiSelect) Has(opt string) bool {
	for _, o := range m.options {
		if o == opt {
			return true
		}
	}
	return false
}

// Options returns the option list.
func (m *MultiSelect) Options() []string {
	return append([]string(nil), m.options...)
}

// Up moves the cursor up.
func (m *MultiSelect) Up() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// Down moves the cursor down.
func (m *MultiSelect) Down() {
	if m.cursor < len(m.options)-1 {
		m.cursor++
	}
}

// Current returns the option under the cursor.
func (m *MultiSelect) Current() string {
	if m.cursor < 0 || m.cursor >= len(m.options) {
		return ""
	}
	return m.options[m.cursor]
}

// Toggle flips the option under the cursor.
func (m *MultiSelect) Toggle() {
	if opt := m.Current(); opt != "" {
		m.Set(opt, !m.selected[opt])
	}
}

// Set selects or clears opt.
func (m *MultiSelect) Set(opt string, on bool) {
	if !m.Has(opt) {
		return
	}
	if on {
		m.selected[opt] = true
		return
	}
	delete(m.selected, opt)
}

// Clear drops every selection.
func (m *MultiSelect) Clear() {
	m.selected = map[string]bool{}
}

// IsSelected reports whether opt is checked.
func (m *MultiSelect) IsSelected(opt string) bool {
	return m.selected[opt]
}

// Selected returns checked options in option order.
func (m *MultiSelect) Selected() []string {
	var out []string
	for _, opt := range m.options {
		if m.selected[opt] {
			out = append(out, opt)
		}
	}
	return out
}

// Allows reports whether value passes the filter. Nothing checked allows
// everything.
func (m *MultiSelect) Allows(value string) bool {
	if len(m.selected) == 0 {
		return true
	}
	return m.selected[value]
}

// Summary is a one-line description of the selection.
func (m *MultiSelect) Summary() string {
	sel := m.Selected()
	if len(sel) == 0 {
		return m.Label + ": all"
	}
	return m.Label + ": " + strings.Join(sel, ", ")
}

// View renders the checkbox list. focused draws the cursor.
func (m *MultiSelect) View(focused bool) string {
	if len(m.options) == 0 {
		return multiMutedStyle.Render(m.Label + ": no options yet")
	}
	lines := make([]string, 0, len(m.options)+1)
	lines = append(lines, multiMutedStyle.Render(m.Label))
	for i, opt := range m.options {
		prefix := "  "
		if focused && i == m.cursor {
			prefix = multiCursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[opt] {
			box = multiCheckedStyle.Render("[x]")
		}
		lines = append(lines, prefix+box+" "+multiOptionStyle.Render(SanitizeOneLine(opt)))
	}
	return strings.Join(lines, "\n")
}
