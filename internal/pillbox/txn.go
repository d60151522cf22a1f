package pillbox

import (
	"context"
	"fmt"
)

// snapshot is the pre-operation membership of the one value a Txn touches.
type snapshot struct {
	index  int
	member bool
}

// Txn is an applied but unconfirmed change.
type Txn struct {
	box   *Box
	op    Op
	value string
	snap  snapshot
	call  Collaborator
}

// Op returns the operation kind.
func (t *Txn) Op() Op { return t.op }

// Value returns the value being added or removed.
func (t *Txn) Value() string { return t.value }

// Result is the collaborator's answer for a Txn.
type Result struct {
	Txn *Txn
	OK  bool
	Err error
}

// Run calls the collaborator. It does not touch Box state, so it may run on
// any goroutine. A panicking collaborator is reported as a failure.
func (t *Txn) Run(ctx context.Context) (res Result) {
	res.Txn = t
	if t.call == nil {
		res.Err = ErrNoCollaborator
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	res.OK, res.Err = t.call(ctx, t.value)
	if res.Err != nil {
		res.OK = false
	}
	return res
}

// revert restores the value's pre-operation membership. Caller holds b.mu.
func (t *Txn) revert(b *Box) {
	if t.snap.member {
		if !b.immutable.has(t.value) {
			b.editable.insertAt(t.snap.index, t.value)
		}
		return
	}
	b.editable.remove(t.value)
}
