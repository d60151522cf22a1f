// Package pillbox manages the tags attached to one entity, split into fixed
// and editable partitions, and keeps them consistent through optimistic
// adds and removes that a server may reject.
//
// Each mutation is a three-phase transaction: Begin validates, snapshots and
// applies the change locally; Txn.Run calls the collaborator and touches no
// state; Settle commits or reverts from the snapshot. An event loop calls
// Begin and Settle on its own goroutine and runs Txn.Run elsewhere. Add and
// Remove chain the phases for callers that can block.
package pillbox

import (
	"context"
	"strings"
	"sync"
)

// Collaborator performs the server side of an add or remove and reports
// whether the server accepted it.
type Collaborator func(ctx context.Context, value string) (bool, error)

// Option configures a Box.
type Option func(*Box)

// WithEdits toggles the add and remove affordances.
func WithEdits(allow bool) Option {
	return func(b *Box) { b.allowEdits = allow }
}

// WithValidValues constrains the values the Box accepts.
func WithValidValues(v ValidValues) Option {
	return func(b *Box) { b.valid = v }
}

// OnAdd sets the collaborator invoked by Add.
func OnAdd(fn Collaborator) Option {
	return func(b *Box) { b.onAdd = fn }
}

// OnRemove sets the collaborator invoked by Remove.
func OnRemove(fn Collaborator) Option {
	return func(b *Box) { b.onRemove = fn }
}

// OnUpdate sets a hook that receives every rendered View.
func OnUpdate(fn func(View)) Option {
	return func(b *Box) { b.onUpdate = fn }
}

// OnClick sets the per-pill activation handler.
func OnClick(fn func(value string)) Option {
	return func(b *Box) { b.onClick = fn }
}

// WithNotifier forwards every notice to n.
func WithNotifier(n Notifier) Option {
	return func(b *Box) { b.notifier = n }
}

// Box is the state of one pillbox.
type Box struct {
	mu sync.Mutex

	ownerID    string
	allowEdits bool
	valid      ValidValues

	immutable orderedSet
	editable  orderedSet
	pending   map[string]Op

	inputOpen bool
	badInput  bool

	onAdd    Collaborator
	onRemove Collaborator
	onUpdate func(View)
	onClick  func(string)
	notifier Notifier
}

// New creates an empty Box for ownerID. No network call is made.
func New(ownerID string, opts ...Option) *Box {
	b := &Box{
		ownerID: ownerID,
		pending: make(map[string]Op),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OwnerID returns the entity the tags belong to.
func (b *Box) OwnerID() string {
	return b.ownerID
}

// AllowEdits reports whether add and remove are offered.
func (b *Box) AllowEdits() bool {
	return b.allowEdits
}

// ValidValues returns the value constraint.
func (b *Box) ValidValues() ValidValues {
	return b.valid
}

// Editable returns a copy of the editable partition.
func (b *Box) Editable() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.editable.values()
}

// Immutable returns a copy of the fixed partition.
func (b *Box) Immutable() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.immutable.values()
}

// Pending reports the in-flight operation on value, if any.
func (b *Box) Pending(value string) (Op, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	op, ok := b.pending[value]
	return op, ok
}

// Adding reports whether an add is in flight. The add control stays
// disabled until it settles.
func (b *Box) Adding() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addInFlight()
}

func (b *Box) addInFlight() bool {
	for _, op := range b.pending {
		if op == OpAdd {
			return true
		}
	}
	return false
}

// Describe returns the description the value constraint holds for value.
func (b *Box) Describe(value string) (string, bool) {
	return b.valid.Describe(value)
}

// Populate adds values to one partition without any network call. It is
// meant for the initial load. The call is atomic: if any value is empty,
// already present, repeated or not permitted, nothing is added.
func (b *Box) Populate(editable bool, values ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			return &ValidationError{Op: OpPopulate, Value: raw, Reason: ErrEmptyValue}
		}
		if _, dup := seen[value]; dup || b.editable.has(value) || b.immutable.has(value) {
			return &ValidationError{Op: OpPopulate, Value: value, Reason: ErrDuplicate}
		}
		if b.valid.IsSet() && !b.valid.Contains(value) {
			return &ValidationError{Op: OpPopulate, Value: value, Reason: ErrNotPermitted}
		}
		seen[value] = struct{}{}
		staged = append(staged, value)
	}

	target := &b.immutable
	if editable {
		target = &b.editable
	}
	for _, value := range staged {
		target.add(value)
	}
	return nil
}

// OpenInput expands the add control. It reports false when edits are off.
func (b *Box) OpenInput() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.allowEdits {
		return false
	}
	b.inputOpen = true
	b.badInput = false
	return true
}

// CloseInput collapses the add control.
func (b *Box) CloseInput() {
	b.mu.Lock()
	b.inputOpen = false
	b.badInput = false
	b.mu.Unlock()
}

// ClearBadInput drops the bad-input cue left by a rejected value.
func (b *Box) ClearBadInput() {
	b.mu.Lock()
	b.badInput = false
	b.mu.Unlock()
}

// BeginAdd validates value and applies it to the editable partition ahead
// of server confirmation. On a validation failure the bad-input cue is set,
// a failure notice is emitted and no Txn is returned.
func (b *Box) BeginAdd(raw string) (*Txn, error) {
	value := strings.TrimSpace(raw)

	b.mu.Lock()
	reason := b.checkAdd(value)
	if reason != nil {
		b.badInput = true
		b.mu.Unlock()
		err := &ValidationError{Op: OpAdd, Value: value, Reason: reason}
		b.notify(FailureNotice(err))
		return nil, err
	}
	txn := &Txn{
		box:   b,
		op:    OpAdd,
		value: value,
		snap:  snapshot{index: -1},
		call:  b.onAdd,
	}
	b.editable.add(value)
	b.pending[value] = OpAdd
	b.badInput = false
	b.mu.Unlock()
	return txn, nil
}

func (b *Box) checkAdd(value string) error {
	switch {
	case !b.allowEdits:
		return ErrReadOnly
	case value == "":
		return ErrEmptyValue
	case b.pending[value] != 0:
		return ErrPending
	case b.editable.has(value), b.immutable.has(value):
		return ErrDuplicate
	case b.valid.IsSet() && !b.valid.Contains(value):
		return ErrNotPermitted
	}
	return nil
}

// BeginRemove drops value from the editable partition ahead of server
// confirmation. Fixed values are refused with ErrImmutable and a notice.
func (b *Box) BeginRemove(raw string) (*Txn, error) {
	value := strings.TrimSpace(raw)

	b.mu.Lock()
	var reason error
	switch {
	case !b.allowEdits:
		reason = ErrReadOnly
	case b.pending[value] != 0:
		reason = ErrPending
	case b.immutable.has(value):
		reason = ErrImmutable
	case !b.editable.has(value):
		reason = ErrNotPresent
	}
	if reason != nil {
		b.mu.Unlock()
		err := &ValidationError{Op: OpRemove, Value: value, Reason: reason}
		b.notify(FailureNotice(err))
		return nil, err
	}
	idx := b.editable.remove(value)
	b.pending[value] = OpRemove
	b.mu.Unlock()

	return &Txn{
		box:   b,
		op:    OpRemove,
		value: value,
		snap:  snapshot{index: idx, member: true},
		call:  b.onRemove,
	}, nil
}

// Settle commits or reverts the transaction behind r and returns the
// resulting notice. Results for transactions that are no longer pending, or
// that belong to another Box, are ignored and yield a zero Notice.
func (b *Box) Settle(r Result) Notice {
	t := r.Txn
	if t == nil || t.box != b {
		return Notice{}
	}

	b.mu.Lock()
	if b.pending[t.value] != t.op {
		b.mu.Unlock()
		return Notice{}
	}
	delete(b.pending, t.value)

	var n Notice
	if r.OK && r.Err == nil {
		if t.op == OpAdd {
			b.inputOpen = false
		}
		n = successNotice(t.op, t.value)
	} else {
		t.revert(b)
		cause := r.Err
		if cause == nil {
			cause = ErrRejected
		}
		if t.op == OpAdd {
			b.badInput = true
		}
		n = FailureNotice(&CollaboratorError{Op: t.op, Value: t.value, Err: cause})
	}
	b.mu.Unlock()

	b.notify(n)
	return n
}

// Add runs a full add and blocks until the collaborator answers. The
// returned error is nil on success, a *ValidationError when nothing was
// sent, or a *CollaboratorError after a rollback.
func (b *Box) Add(ctx context.Context, value string) (Notice, error) {
	txn, err := b.BeginAdd(value)
	if err != nil {
		return FailureNotice(err), err
	}
	n := b.Settle(txn.Run(ctx))
	return n, n.Err
}

// Remove runs a full remove and blocks until the collaborator answers.
func (b *Box) Remove(ctx context.Context, value string) (Notice, error) {
	txn, err := b.BeginRemove(value)
	if err != nil {
		return FailureNotice(err), err
	}
	n := b.Settle(txn.Run(ctx))
	return n, n.Err
}

// Click invokes the activation handler for a rendered pill. It reports
// whether a handler ran.
func (b *Box) Click(value string) bool {
	b.mu.Lock()
	shown := b.editable.has(value) || b.immutable.has(value)
	fn := b.onClick
	b.mu.Unlock()
	if !shown || fn == nil {
		return false
	}
	fn(value)
	return true
}

func (b *Box) notify(n Notice) {
	if b.notifier != nil && !n.IsZero() {
		b.notifier.Notify(n)
	}
}
