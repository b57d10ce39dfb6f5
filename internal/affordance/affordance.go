package affordance

import (
	"sync"

	"github.com/duostream/duostream-tui/internal/theme"
)

// State is the feedback state of an affordance.
type State int

const (
	Idle State = iota
	Pressed
	Disabled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Disabled:
		return "disabled"
	default:
		return "?"
	}
}

// DefaultScale is how far a pressed control compresses.
const DefaultScale = 0.95

// Scheme configures one affordance.
type Scheme struct {
	Colors theme.Scheme
	Scale  float64 // pressed scale; DefaultScale when zero
	Shadow bool    // inset shadow while pressed
}

// SchemeFor builds the standard scheme for a control kind.
func SchemeFor(t theme.Theme, k theme.ButtonKind) Scheme {
	return Scheme{Colors: t.Scheme(k), Scale: DefaultScale, Shadow: true}
}

// Disposer releases whatever it was returned for.
type Disposer interface {
	Dispose()
}

// Affordance is one bound set of feedback listeners.
type Affordance struct {
	control *Control
	scheme  Scheme
	state   State
	offs    []func()
	once    sync.Once
}

var _ Disposer = (*Affordance)(nil)

// Attach binds press/hover/disabled feedback to c and applies the current
// enabled state right away. Call Dispose on the result before attaching a
// different scheme to the same control.
func Attach(c *Control, s Scheme) *Affordance {
	if s.Scale == 0 {
		s.Scale = DefaultScale
	}
	a := &Affordance{control: c, scheme: s}
	a.offs = []func(){
		c.On(PointerDown, a.pointerDown),
		c.On(PointerUp, a.release),
		c.On(PointerLeave, a.leave),
		c.On(PointerEnter, a.enter),
		c.Observe(a.enabledChanged),
	}
	a.enabledChanged(c.Enabled())
	return a
}

// Dispose unregisters every listener and the enable observer. Only the
// first call has an effect.
func (a *Affordance) Dispose() {
	a.once.Do(func() {
		for _, off := range a.offs {
			off()
		}
		a.offs = nil
	})
}

// Control returns the control this affordance decorates.
func (a *Affordance) Control() *Control {
	return a.control
}

// Scheme returns the scheme the affordance was attached with.
func (a *Affordance) Scheme() Scheme {
	return a.scheme
}

// State returns the current feedback state.
func (a *Affordance) State() State {
	return a.state
}

func (a *Affordance) pointerDown() {
	if a.state == Disabled || !a.control.Enabled() {
		return
	}
	a.state = Pressed
	st := a.control.Style()
	st.Background = a.scheme.Colors.Active
	st.Scale = a.scheme.Scale
	st.Shadow = a.scheme.Shadow
	a.control.SetStyle(st)
}

func (a *Affordance) release() {
	if a.state == Disabled {
		return
	}
	a.rest()
}

func (a *Affordance) leave() {
	a.control.SetHover(false)
	if a.state == Disabled {
		return
	}
	a.rest()
}

func (a *Affordance) enter() {
	a.control.SetHover(true)
}

func (a *Affordance) rest() {
	a.state = Idle
	st := a.control.Style()
	st.Background = a.scheme.Colors.Normal
	st.Scale = 1
	st.Shadow = false
	st.Cursor = CursorPointer
	a.control.SetStyle(st)
}

func (a *Affordance) enabledChanged(enabled bool) {
	if enabled {
		a.rest()
		return
	}
	a.state = Disabled
	st := a.control.Style()
	st.Background = a.scheme.Colors.Disabled
	st.Scale = 1
	st.Shadow = false
	st.Cursor = CursorNotAllowed
	a.control.SetStyle(st)
}
