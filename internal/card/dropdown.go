package card

// NoSelection is the empty selection, distinct from every session name
// because the upstream sensor never reports an empty name.
const NoSelection = ""

// PlaceholderLabel is shown as the only, disabled option when no session
// can be started.
const PlaceholderLabel = "No available sessions"

// Option is one dropdown entry.
type Option struct {
	Value    string
	Label    string
	Disabled bool
}

// Dropdown is the reconciled state of the session picker and its start
// control.
type Dropdown struct {
	Options   []Option
	Selection string
	Enabled   bool
}

// Reconcile rebuilds the dropdown for a new inactive list. The previous
// selection survives when it is still startable; otherwise the first
// inactive session is picked.
func Reconcile(inactive []Session, previous string, serviceStatus string) Dropdown {
	if len(inactive) == 0 {
		return Dropdown{
			Options:   []Option{{Value: NoSelection, Label: PlaceholderLabel, Disabled: true}},
			Selection: NoSelection,
		}
	}

	d := Dropdown{Options: make([]Option, 0, len(inactive))}
	found := false
	for _, s := range inactive {
		d.Options = append(d.Options, Option{Value: s.Name, Label: s.Name})
		if s.Name == previous && previous != NoSelection {
			found = true
		}
	}
	if found {
		d.Selection = previous
	} else {
		d.Selection = inactive[0].Name
	}
	d.Enabled = StartEnabled(d.Selection, serviceStatus)
	return d
}

// StartEnabled reports whether a session can be started: something must be
// selected and the service must be running.
func StartEnabled(selection, serviceStatus string) bool {
	return selection != NoSelection && serviceStatus == StatusRunning
}

// Has reports whether value is a selectable option.
func (d Dropdown) Has(value string) bool {
	for _, o := range d.Options {
		if !o.Disabled && o.Value == value {
			return true
		}
	}
	return false
}

// Cycle returns the selectable option delta steps away from the current
// selection, wrapping around. It returns the current selection when
// nothing is selectable.
func (d Dropdown) Cycle(delta int) string {
	var values []string
	cur := 0
	for _, o := range d.Options {
		if o.Disabled {
			continue
		}
		if o.Value == d.Selection {
			cur = len(values)
		}
		values = append(values, o.Value)
	}
	if len(values) == 0 {
		return d.Selection
	}
	n := len(values)
	return values[((cur+delta)%n+n)%n]
}
