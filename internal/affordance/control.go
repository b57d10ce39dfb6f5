// Package affordance gives controls their press, hover and disabled
// feedback. A Control is the rendered element and its event surface; an
// Affordance is one set of feedback listeners bound to a Control, with an
// explicit attach/dispose lifecycle.
package affordance

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

// Event is a pointer event delivered to a control.
type Event int

const (
	PointerDown Event = iota
	PointerUp
	PointerEnter
	PointerLeave
)

func (e Event) String() string {
	switch e {
	case PointerDown:
		return "pointerdown"
	case PointerUp:
		return "pointerup"
	case PointerEnter:
		return "pointerenter"
	case PointerLeave:
		return "pointerleave"
	default:
		return "?"
	}
}

// Cursor hints.
const (
	CursorPointer    = "pointer"
	CursorNotAllowed = "not-allowed"
)

// FrameRate drives the press animation.
const FrameRate = 60

// FrameInterval is the time between animation steps.
var FrameInterval = time.Second / FrameRate

const settleEpsilon = 0.001

// Style is the visual state a control renders with.
type Style struct {
	Background lipgloss.Color
	Scale      float64 // target scale; 1 at rest
	Shadow     bool
	Hover      bool
	Cursor     string
}

type listener struct {
	id    uint64
	event Event
	fn    func()
}

type observer struct {
	id uint64
	fn func(enabled bool)
}

// Control is one interactive element. It is not safe for concurrent use;
// all calls come from the UI update loop.
type Control struct {
	ID string

	enabled   bool
	style     Style
	listeners []listener
	observers []observer
	nextID    uint64

	spring   harmonica.Spring
	scale    float64 // animated scale
	velocity float64
}

// NewControl returns an enabled control at rest.
func NewControl(id string) *Control {
	return &Control{
		ID:      id,
		enabled: true,
		style:   Style{Scale: 1, Cursor: CursorPointer},
		spring:  harmonica.NewSpring(harmonica.FPS(FrameRate), 12.0, 0.6),
		scale:   1,
	}
}

// On registers fn for ev and returns a function that removes it. The
// returned function is safe to call more than once.
func (c *Control) On(ev Event, fn func()) (off func()) {
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, event: ev, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Observe registers fn to be told about every change of the enabled flag.
func (c *Control) Observe(fn func(enabled bool)) (off func()) {
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to the listeners registered for it, in registration order.
func (c *Control) Emit(ev Event) {
	// Copy so listeners may unregister themselves.
	ls := append([]listener(nil), c.listeners...)
	for _, l := range ls {
		if l.event == ev {
			l.fn()
		}
	}
}

// SetEnabled changes the enabled flag and notifies observers when it
// actually changed.
func (c *Control) SetEnabled(enabled bool) {
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	obs := append([]observer(nil), c.observers...)
	for _, o := range obs {
		o.fn(enabled)
	}
}

// Enabled reports the enabled flag.
func (c *Control) Enabled() bool {
	return c.enabled
}

// Style returns the current visual state.
func (c *Control) Style() Style {
	return c.style
}

// SetStyle replaces the visual state. The animated scale follows on the
// next Step calls.
func (c *Control) SetStyle(s Style) {
	c.style = s
}

// SetHover updates the hover flag without touching the rest of the style.
func (c *Control) SetHover(h bool) {
	c.style.Hover = h
}

// ListenerCount returns the number of registered pointer listeners plus
// enable observers.
func (c *Control) ListenerCount() int {
	return len(c.listeners) + len(c.observers)
}

// Scale returns the animated scale, settling toward Style().Scale.
func (c *Control) Scale() float64 {
	return c.scale
}

// Step advances the press animation by one frame and reports whether the
// control is still moving.
func (c *Control) Step() bool {
	c.scale, c.velocity = c.spring.Update(c.scale, c.velocity, c.style.Scale)
	if math.Abs(c.scale-c.style.Scale) < settleEpsilon && math.Abs(c.velocity) < settleEpsilon {
		c.scale, c.velocity = c.style.Scale, 0
		return false
	}
	return true
}

// Animating reports whether the control has not yet settled.
func (c *Control) Animating() bool {
	return c.scale != c.style.Scale || c.velocity != 0
}
