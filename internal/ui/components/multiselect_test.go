package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiSelectToggleAndAllows(t *testing.T) {
	m := NewMultiSelect("Level", "DEBUG", "INFO", "ERROR")
	assert.True(t, m.Allows("DEBUG"))
	assert.Equal(t, "Level: all", m.Summary())

	m.Down()
	m.Toggle()
	assert.Equal(t, []string{"INFO"}, m.Selected())
	assert.True(t, m.Allows("INFO"))
	assert.False(t, m.Allows("DEBUG"))
	assert.Equal(t, "Level: INFO", m.Summary())

	m.Toggle()
	assert.Empty(t, m.Selected())
	assert.True(t, m.Allows("DEBUG"))
}

func TestMultiSelectGrowsWithoutDuplicates(t *testing.T) {
	m := NewMultiSelect("Component")
	assert.Contains(t, SanitizeText(m.View(true)), "no options yet")

	assert.True(t, m.AddOptions("worker", "app", " "))
	assert.False(t, m.AddOptions("app"))
	assert.Equal(t, []string{"worker", "app"}, m.Options())

	m.Down()
	m.SortOptions()
	assert.Equal(t, []string{"app", "worker"}, m.Options())
	assert.Equal(t, "app", m.Current())
}

func TestMultiSelectCursorBounds(t *testing.T) {
	m := NewMultiSelect("Domain", "a.example", "b.example")
	m.Up()
	assert.Equal(t, "a.example", m.Current())
	m.Down()
	m.Down()
	assert.Equal(t, "b.example", m.Current())

	m.Set("missing", true)
	assert.Empty(t, m.Selected())
	m.Set("a.example", true)
	m.Set("b.example", true)
	assert.Equal(t, []string{"a.example", "b.example"}, m.Selected())
	m.Clear()
	assert.Empty(t, m.Selected())
}

func TestMultiSelectView(t *testing.T) {
	m := NewMultiSelect("Level", "INFO", "ERROR")
	m.Set("ERROR", true)
	clean := SanitizeText(m.View(true))
	assert.Contains(t, clean, "> [ ] INFO")
	assert.Contains(t, clean, "[x] ERROR")
	assert.NotContains(t, SanitizeText(m.View(false)), ">")
}
