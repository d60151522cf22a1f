package pillbox

import (
	"errors"
	"fmt"
)

// Op names a pillbox operation.
type Op int

const (
	OpPopulate Op = iota + 1
	OpAdd
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpPopulate:
		return "populate"
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is the user-facing outcome of an add or remove.
type Notice struct {
	Level Level
	Title string
	Text  string
	Op    Op
	Value string
	Err   error
}

// IsZero reports whether n carries no outcome, as returned for stale results.
func (n Notice) IsZero() bool {
	return n.Level == "" && n.Op == 0
}

// Notifier receives every notice a Box emits.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func successNotice(op Op, value string) Notice {
	title := "Added"
	text := fmt.Sprintf("%q added", value)
	if op == OpRemove {
		title = "Removed"
		text = fmt.Sprintf("%q removed", value)
	}
	return Notice{Level: LevelSuccess, Title: title, Text: text, Op: op, Value: value}
}

// FailureNotice builds the error notice for err. Validation and collaborator
// errors keep their op and value; anything else is reported as-is.
func FailureNotice(err error) Notice {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Notice{
			Level: LevelError,
			Title: "Invalid value",
			Text:  fmt.Sprintf("cannot %s %q: %v", ve.Op, ve.Value, ve.Reason),
			Op:    ve.Op,
			Value: ve.Value,
			Err:   err,
		}
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		title := "Add failed"
		if ce.Op == OpRemove {
			title = "Remove failed"
		}
		return Notice{
			Level: LevelError,
			Title: title,
			Text:  fmt.Sprintf("could not %s %q: %v", ce.Op, ce.Value, ce.Err),
			Op:    ce.Op,
			Value: ce.Value,
			Err:   err,
		}
	}
	return Notice{Level: LevelError, Title: "Error", Text: err.Error(), Err: err}
}
