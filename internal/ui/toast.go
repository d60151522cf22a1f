package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/mirrorctl/internal/pillbox"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// toastDuration is how long a toast stays up.
const toastDuration = 2500 * time.Millisecond

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastWarning
	toastError
)

func (l toastLevel) title() string {
	return [...]string{"Info", "Success", "Warning", "Error"}[l]
}

// toastMsg asks the App to show a toast; tabs send it through toast().
type toastMsg struct {
	level toastLevel
	text  string
}

// clearToastMsg expires the toast numbered seq. Older numbers are ignored so
// a new toast is never cut short by its predecessor's timer.
type clearToastMsg struct{ seq int }

func toast(level toastLevel, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{level: level, text: text} }
}

// toastSlot holds at most one visible toast.
type toastSlot struct {
	seq     int
	current *toastMsg
}

func (s *toastSlot) show(level toastLevel, text string) tea.Cmd {
	s.seq++
	s.current = &toastMsg{level: level, text: components.SanitizeOneLine(text)}
	seq := s.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
}

func (s *toastSlot) expire(seq int) {
	if seq == s.seq {
		s.current = nil
	}
}

func (s toastSlot) render(width int) string {
	t := s.current
	switch {
	case t == nil:
		return ""
	case t.level == toastError:
		return components.ErrorBox(t.level.title(), t.text, width)
	}
	return components.TitledBox(t.level.title(), t.text, width)
}

// fromNotice turns a pill box outcome into a toast.
func fromNotice(n pillbox.Notice) (toastLevel, string) {
	level := toastError
	if n.Level == pillbox.LevelSuccess {
		level = toastSuccess
	}
	if n.Title == "" {
		return level, n.Text
	}
	return level, n.Title + ": " + n.Text
}
