package pillbox

// Pill is one rendered tag.
type Pill struct {
	Value       string
	Editable    bool
	Pending     bool
	Description string
	Clickable   bool
}

// AddControl is the rendered state of the add affordance.
type AddControl struct {
	Visible  bool
	Open     bool
	Disabled bool
	BadInput bool
}

// View is the rendered form of a Box.
type View struct {
	OwnerID string
	Pills   []Pill
	Add     AddControl
}

// Render maps the current state to a View, editable pills first, and hands
// it to the update hook. Rendering unchanged state yields an equal View.
func (b *Box) Render() View {
	b.mu.Lock()
	v := View{
		OwnerID: b.ownerID,
		Pills:   make([]Pill, 0, len(b.editable.items)+len(b.immutable.items)),
	}
	clickable := b.onClick != nil
	for _, value := range b.editable.items {
		desc, _ := b.valid.Describe(value)
		v.Pills = append(v.Pills, Pill{
			Value:       value,
			Editable:    true,
			Pending:     b.pending[value] != 0,
			Description: desc,
			Clickable:   clickable,
		})
	}
	for _, value := range b.immutable.items {
		desc, _ := b.valid.Describe(value)
		v.Pills = append(v.Pills, Pill{
			Value:       value,
			Description: desc,
			Clickable:   clickable,
		})
	}
	if b.allowEdits {
		v.Add = AddControl{
			Visible:  true,
			Open:     b.inputOpen,
			Disabled: b.addInFlight(),
			BadInput: b.badInput,
		}
	}
	hook := b.onUpdate
	b.mu.Unlock()

	if hook != nil {
		hook(v)
	}
	return v
}

// Values returns the pill values in render order.
func (v View) Values() []string {
	out := make([]string, 0, len(v.Pills))
	for _, p := range v.Pills {
		out = append(out, p.Value)
	}
	return out
}

// Has reports whether value is rendered.
func (v View) Has(value string) bool {
	for _, p := range v.Pills {
		if p.Value == value {
			return true
		}
	}
	return false
}
