package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dialogTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
	formLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#436b77")).
			Bold(true)
	formBadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06c75")).
			Bold(true)
)

// ConfirmDialog asks a yes/no question in a titled box.
func ConfirmDialog(title, question string, term int) string {
	body := dialogTextStyle.Render(SanitizeText(question)) + "\n\n" +
		Hint("y", "Confirm") + "  " + Hint("n", "Cancel")
	return TitledBox(title, body, term)
}

// FormField is one labelled input of a FormDialog. Input is the already
// rendered input widget.
type FormField struct {
	Label string
	Input string
	Error bool
}

// FormDialog stacks labelled inputs in a titled box, with errText under
// them when set. Labels of fields marked Error turn red.
func FormDialog(title string, fields []FormField, errText string, term int) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		label := formLabelStyle.Render(SanitizeOneLine(f.Label))
		if f.Error {
			label = formBadStyle.Render(SanitizeOneLine(f.Label) + " !")
		}
		b.WriteString(label + "\n" + f.Input)
	}
	if errText != "" {
		b.WriteString("\n\n" + formBadStyle.Render(SanitizeOneLine(errText)))
	}
	b.WriteString("\n\n" + Hint("tab", "Next") + "  " + Hint("enter", "Submit") + "  " + Hint("esc", "Cancel"))
	return TitledBox(title, b.String(), term)
}
