package pillbox

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyValue     = errors.New("value is empty")
	ErrDuplicate      = errors.New("value already present")
	ErrNotPermitted   = errors.New("value is not permitted")
	ErrImmutable      = errors.New("value is fixed and cannot be removed")
	ErrNotPresent     = errors.New("value is not present")
	ErrPending        = errors.New("an operation on this value is already in flight")
	ErrReadOnly       = errors.New("edits are disabled")
	ErrRejected       = errors.New("rejected by server")
	ErrNoCollaborator = errors.New("no handler configured")
)

// ValidationError is returned before any network call when a value fails a
// precondition. Reason is one of the sentinel errors above.
type ValidationError struct {
	Op     Op
	Value  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// CollaboratorError reports a failed onAdd/onRemove call. Err is ErrRejected
// when the collaborator returned false without an error, otherwise the
// transport or server error it returned.
type CollaboratorError struct {
	Op    Op
	Value string
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Value, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
