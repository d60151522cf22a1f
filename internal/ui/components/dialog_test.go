package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmDialogShowsQuestionAndKeys(t *testing.T) {
	clean := SanitizeText(ConfirmDialog("Delete user", "Delete alice?", 80))
	assert.Contains(t, clean, "Delete user")
	assert.Contains(t, clean, "Delete alice?")
	assert.Contains(t, clean, "y  Confirm")
	assert.Contains(t, clean, "n  Cancel")
}

func TestConfirmDialogStripsEscapes(t *testing.T) {
	out := ConfirmDialog("Delete user", "Delete \x1b]0;x\x07bob?", 80)
	assert.NotContains(t, out, "\x1b]")
}

func TestFormDialogMarksErroredFields(t *testing.T) {
	clean := SanitizeText(FormDialog("Add user", []FormField{
		{Label: "Username", Input: "> alex"},
		{Label: "Password", Input: "> ****", Error: true},
	}, "passwords do not match", 80))

	assert.Contains(t, clean, "Add user")
	assert.Contains(t, clean, "> alex")
	assert.Contains(t, clean, "Password !")
	assert.NotContains(t, clean, "Username !")
	assert.Contains(t, clean, "passwords do not match")
	assert.Contains(t, clean, "Cancel")
}
