package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gravitrone/mirrorctl/internal/pillbox"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// badInputPulse is how long a rejected value keeps the input border red.
const badInputPulse = 900 * time.Millisecond

// --- Messages ---

type pillboxSettledMsg struct {
	res pillbox.Result
}

type pillboxPulseMsg struct {
	owner string
	seq   int
}

type noticeMsg struct {
	notice pillbox.Notice
}

// PillboxEditor drives a pillbox.Box from key events. Begin and Settle run
// inside Update; only Txn.Run happens in a command.
type PillboxEditor struct {
	box     *pillbox.Box
	input   textinput.Model
	cursor  int
	focused bool
	clicked *string
	info    string
	pulse   int
	width   int
}

// newLoggingNotifier records every notice at info or warn level.
func newLoggingNotifier(logger *zap.Logger, owner string) pillbox.Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return pillbox.NotifierFunc(func(n pillbox.Notice) {
		fields := []zap.Field{
			zap.String("owner", owner),
			zap.String("op", n.Op.String()),
			zap.String("value", n.Value),
		}
		if n.Level == pillbox.LevelError {
			logger.Warn("pillbox reverted", append(fields, zap.Error(n.Err))...)
			return
		}
		logger.Info("pillbox committed", fields...)
	})
}

// NewPillboxEditor wraps box. clicked must be the target of the box's
// OnClick hook, or nil when pills are not clickable.
func NewPillboxEditor(box *pillbox.Box, clicked *string, suggestions []string) PillboxEditor {
	in := textinput.New()
	in.Placeholder = "permission"
	in.Prompt = "+ "
	in.CharLimit = 64
	in.ShowSuggestions = len(suggestions) > 0
	in.SetSuggestions(suggestions)
	return PillboxEditor{
		box:     box,
		input:   in,
		clicked: clicked,
	}
}

// Box returns the wrapped box.
func (e PillboxEditor) Box() *pillbox.Box {
	return e.box
}

// SetSuggestions replaces the add input completions.
func (e *PillboxEditor) SetSuggestions(values []string) {
	e.input.ShowSuggestions = len(values) > 0
	e.input.SetSuggestions(values)
}

// SetWidth sets the render width.
func (e *PillboxEditor) SetWidth(width int) {
	e.width = width
}

// Focus gives the editor key focus.
func (e *PillboxEditor) Focus() {
	e.focused = true
}

// Blur drops key focus and collapses the input.
func (e *PillboxEditor) Blur() {
	e.focused = false
	if e.inputOpen() {
		e.box.CloseInput()
		e.input.Blur()
	}
}

// Focused reports whether the editor has focus.
func (e PillboxEditor) Focused() bool {
	return e.focused
}

// Capturing reports whether the add input is eating keystrokes.
func (e PillboxEditor) Capturing() bool {
	return e.focused && e.inputOpen()
}

func (e PillboxEditor) inputOpen() bool {
	return e.box != nil && e.box.Render().Add.Open
}

func (e PillboxEditor) Update(msg tea.Msg) (PillboxEditor, tea.Cmd) {
	if e.box == nil {
		return e, nil
	}
	switch msg := msg.(type) {
	case pillboxSettledMsg:
		n := e.box.Settle(msg.res)
		if n.IsZero() {
			return e, nil
		}
		cmds := []tea.Cmd{emitNotice(n)}
		if n.Level == pillbox.LevelSuccess && n.Op == pillbox.OpAdd {
			e.input.Blur()
		}
		if e.box.Render().Add.BadInput {
			cmds = append(cmds, e.startPulse())
		}
		return e, tea.Batch(cmds...)
	case pillboxPulseMsg:
		if msg.owner == e.box.OwnerID() && msg.seq == e.pulse {
			e.box.ClearBadInput()
		}
		return e, nil
	case tea.KeyMsg:
		if !e.focused {
			return e, nil
		}
		if e.inputOpen() {
			return e.handleInputKeys(msg)
		}
		return e.handlePillKeys(msg)
	}
	return e, nil
}

func (e PillboxEditor) handleInputKeys(msg tea.KeyMsg) (PillboxEditor, tea.Cmd) {
	switch {
	case isBack(msg):
		e.box.CloseInput()
		e.input.Blur()
		e.input.SetValue("")
		return e, nil
	case isEnter(msg):
		if e.box.Adding() {
			return e, nil
		}
		txn, err := e.box.BeginAdd(e.input.Value())
		if err != nil {
			pulse := e.startPulse()
			return e, tea.Batch(emitNotice(pillbox.FailureNotice(err)), pulse)
		}
		e.input.SetValue("")
		return e, runTxn(txn)
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return e, cmd
}

func (e PillboxEditor) handlePillKeys(msg tea.KeyMsg) (PillboxEditor, tea.Cmd) {
	view := e.box.Render()
	slots := len(view.Pills)
	if view.Add.Visible {
		slots++
	}
	if e.cursor >= slots {
		e.cursor = slots - 1
	}
	if e.cursor < 0 {
		e.cursor = 0
	}

	switch {
	case isLeft(msg):
		if e.cursor > 0 {
			e.cursor--
		}
		e.info = ""
	case isRight(msg):
		if e.cursor < slots-1 {
			e.cursor++
		}
		e.info = ""
	case isKey(msg, "a"):
		return e.openInput(view)
	case isDelete(msg):
		if e.cursor >= len(view.Pills) {
			return e, nil
		}
		txn, err := e.box.BeginRemove(view.Pills[e.cursor].Value)
		if err != nil {
			return e, emitNotice(pillbox.FailureNotice(err))
		}
		return e, runTxn(txn)
	case isEnter(msg), isSpace(msg):
		if e.cursor == len(view.Pills) {
			return e.openInput(view)
		}
		if e.cursor < len(view.Pills) {
			e.info = e.describe(view.Pills[e.cursor])
		}
	}
	return e, nil
}

func (e PillboxEditor) openInput(view pillbox.View) (PillboxEditor, tea.Cmd) {
	if view.Add.Disabled || !e.box.OpenInput() {
		return e, nil
	}
	e.info = ""
	e.input.SetValue("")
	cmd := e.input.Focus()
	return e, cmd
}

func (e PillboxEditor) describe(p pillbox.Pill) string {
	if e.clicked != nil {
		*e.clicked = ""
	}
	e.box.Click(p.Value)
	value := p.Value
	if e.clicked != nil && *e.clicked != "" {
		value = *e.clicked
	}
	if desc, ok := e.box.Describe(value); ok && desc != "" {
		return value + ": " + desc
	}
	return value
}

func (e *PillboxEditor) startPulse() tea.Cmd {
	e.pulse++
	owner, seq := e.box.OwnerID(), e.pulse
	return tea.Tick(badInputPulse, func(time.Time) tea.Msg {
		return pillboxPulseMsg{owner: owner, seq: seq}
	})
}

func runTxn(txn *pillbox.Txn) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return pillboxSettledMsg{res: txn.Run(ctx)}
	}
}

func emitNotice(n pillbox.Notice) tea.Cmd {
	if n.IsZero() {
		return nil
	}
	return func() tea.Msg { return noticeMsg{notice: n} }
}

func (e PillboxEditor) View() string {
	if e.box == nil {
		return ""
	}
	view := e.box.Render()
	cursor := -1
	if e.focused && !view.Add.Open {
		cursor = e.cursor
	}
	width := components.BoxContentWidth(e.width)
	out := components.Pills(view, cursor, width)
	if view.Add.Open {
		style := InputStyle
		if view.Add.BadInput {
			style = InputBadStyle
		}
		out += "\n" + style.Render(e.input.View())
	}
	if e.info != "" {
		out += "\n" + MutedStyle.Render(components.SanitizeOneLine(e.info))
	}
	return out
}

// Hints lists the editor keys for the status bar.
func (e PillboxEditor) Hints() []string {
	if e.Capturing() {
		return []string{
			components.Hint("enter", "Add"),
			components.Hint("esc", "Cancel"),
		}
	}
	return []string{
		components.Hint("←/→", "Pills"),
		components.Hint("a", "Add"),
		components.Hint("x", "Remove"),
		components.Hint("enter", "Describe"),
	}
}
