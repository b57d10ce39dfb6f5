package affordance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duostream/duostream-tui/internal/theme"
)

func wakeScheme() Scheme {
	return SchemeFor(theme.Light, theme.KindWake)
}

func TestAttachAppliesInitialState(t *testing.T) {
	c := NewControl("wake")
	a := Attach(c, wakeScheme())
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, theme.ColorWake, c.Style().Background)
	assert.Equal(t, CursorPointer, c.Style().Cursor)

	d := NewControl("service")
	d.SetEnabled(false)
	b := Attach(d, SchemeFor(theme.Light, theme.KindStartService))
	assert.Equal(t, Disabled, b.State())
	assert.Equal(t, theme.Light.Disabled, d.Style().Background)
	assert.Equal(t, CursorNotAllowed, d.Style().Cursor)
}

func TestPressAndRelease(t *testing.T) {
	c := NewControl("wake")
	a := Attach(c, wakeScheme())

	c.Emit(PointerDown)
	assert.Equal(t, Pressed, a.State())
	assert.Equal(t, theme.ColorWakeActive, c.Style().Background)
	assert.Equal(t, DefaultScale, c.Style().Scale)
	assert.True(t, c.Style().Shadow)

	c.Emit(PointerUp)
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, theme.ColorWake, c.Style().Background)
	assert.Equal(t, 1.0, c.Style().Scale)
	assert.False(t, c.Style().Shadow)
}

func TestLeaveCancelsPress(t *testing.T) {
	c := NewControl("wake")
	a := Attach(c, wakeScheme())

	c.Emit(PointerEnter)
	assert.True(t, c.Style().Hover)
	c.Emit(PointerDown)
	c.Emit(PointerLeave)
	assert.Equal(t, Idle, a.State())
	assert.False(t, c.Style().Hover)
	assert.Equal(t, theme.ColorWake, c.Style().Background)
}

func TestDisabledIgnoresPointer(t *testing.T) {
	c := NewControl("session")
	a := Attach(c, SchemeFor(theme.Light, theme.KindSession))

	c.SetEnabled(false)
	require.Equal(t, Disabled, a.State())

	c.Emit(PointerDown)
	assert.Equal(t, Disabled, a.State())
	c.Emit(PointerUp)
	assert.Equal(t, Disabled, a.State())
	assert.Equal(t, theme.Light.Disabled, c.Style().Background)

	c.SetEnabled(true)
	assert.Equal(t, Idle, a.State())
	assert.Equal(t, theme.ColorSession, c.Style().Background)
	assert.Equal(t, CursorPointer, c.Style().Cursor)
}

func TestDisableWhilePressed(t *testing.T) {
	c := NewControl("service")
	a := Attach(c, SchemeFor(theme.Light, theme.KindStopService))
	c.Emit(PointerDown)
	require.Equal(t, Pressed, a.State())

	c.SetEnabled(false)
	assert.Equal(t, Disabled, a.State())
	assert.Equal(t, 1.0, c.Style().Scale)
	assert.False(t, c.Style().Shadow)
}

func TestSetEnabledNotifiesOnlyOnChange(t *testing.T) {
	c := NewControl("x")
	var calls []bool
	off := c.Observe(func(enabled bool) { calls = append(calls, enabled) })

	c.SetEnabled(true)
	c.SetEnabled(false)
	c.SetEnabled(false)
	c.SetEnabled(true)
	assert.Equal(t, []bool{false, true}, calls)

	off()
	c.SetEnabled(false)
	assert.Len(t, calls, 2)
}

func TestDisposeIsIdempotent(t *testing.T) {
	c := NewControl("wake")
	require.Equal(t, 0, c.ListenerCount())

	a := Attach(c, wakeScheme())
	assert.Equal(t, 5, c.ListenerCount())

	a.Dispose()
	assert.Equal(t, 0, c.ListenerCount())
	a.Dispose()
	assert.Equal(t, 0, c.ListenerCount())

	// Disposed feedback no longer reacts.
	before := c.Style()
	c.Emit(PointerDown)
	c.SetEnabled(false)
	assert.Equal(t, before, c.Style())
}

func TestDisposeLeavesOtherListeners(t *testing.T) {
	c := NewControl("wake")
	clicks := 0
	c.On(PointerUp, func() { clicks++ })

	a := Attach(c, wakeScheme())
	b := Attach(c, SchemeFor(theme.Light, theme.KindShutdown))
	assert.Equal(t, 11, c.ListenerCount())

	a.Dispose()
	assert.Equal(t, 6, c.ListenerCount())

	// The surviving scheme owns the visuals.
	c.Emit(PointerDown)
	assert.Equal(t, theme.ColorDangerActive, c.Style().Background)
	c.Emit(PointerUp)
	assert.Equal(t, 1, clicks)

	b.Dispose()
	assert.Equal(t, 1, c.ListenerCount())
}

func TestListenerMayRemoveItself(t *testing.T) {
	c := NewControl("x")
	n := 0
	var off func()
	off = c.On(PointerDown, func() {
		n++
		off()
	})
	c.Emit(PointerDown)
	c.Emit(PointerDown)
	assert.Equal(t, 1, n)
	off()
	assert.Equal(t, 0, c.ListenerCount())
}

func TestPressAnimationSettles(t *testing.T) {
	c := NewControl("wake")
	Attach(c, wakeScheme())
	assert.False(t, c.Animating())

	c.Emit(PointerDown)
	assert.True(t, c.Animating())

	frames := 0
	for c.Step() {
		frames++
		require.Less(t, frames, 10*FrameRate, "spring never settled")
	}
	assert.Equal(t, DefaultScale, c.Scale())
	assert.False(t, c.Animating())

	c.Emit(PointerUp)
	for c.Step() {
	}
	assert.Equal(t, 1.0, c.Scale())
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "pointerdown", PointerDown.String())
	assert.Equal(t, "pressed", Pressed.String())
}
