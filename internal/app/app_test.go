package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duostream/duostream-tui/internal/affordance"
	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
	"github.com/duostream/duostream-tui/internal/registry"
	"github.com/duostream/duostream-tui/internal/theme"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

const (
	pcEntity      = "sensor.duostream_pc_computer_status"
	serviceEntity = "switch.duostream_pc_service_switch"
	sessionsSens  = "sensor.duostream_pc_available_sessions"
	wakeEntity    = "switch.pc_wol"
)

type fakeProvider struct {
	resyncErr error
	resyncs   int
}

func (p *fakeProvider) Listen(context.Context) tea.Cmd {
	return func() tea.Msg { return hass.ConnectedMsg{} }
}

func (p *fakeProvider) ReadLoop(context.Context) tea.Cmd {
	return func() tea.Msg { return nil }
}

func (p *fakeProvider) Resync() error {
	p.resyncs++
	return p.resyncErr
}

type call struct {
	domain, action, entity string
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []call
}

func (d *recordingDispatcher) Dispatch(_ context.Context, domain, action, entityID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call{domain, action, entityID})
	return nil
}

func (d *recordingDispatcher) Calls() []call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]call(nil), d.calls...)
}

func newModel(t *testing.T, cfg config.Card) (Model, *fakeProvider, *recordingDispatcher) {
	t.Helper()
	c, err := card.New(cfg)
	require.NoError(t, err)
	p := &fakeProvider{}
	d := &recordingDispatcher{}
	m := New(c, Options{
		Provider:   p,
		Dispatcher: d,
		Catalog:    registry.New(),
		Theme:      theme.Light,
		Transport:  config.TransportWebSocket,
	})
	return m, p, d
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// drain runs cmd and every command it batches, returning the messages
// produced. Ticks are waited out.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func snapshot(wake, service string, available []string, active ...string) hass.Snapshot {
	s := hass.Snapshot{
		pcEntity:     {EntityID: pcEntity, State: "online"},
		sessionsSens: {EntityID: sessionsSens, State: "n", Attributes: hass.Attributes{AvailableSessions: available}},
	}
	if service != "" {
		s[serviceEntity] = hass.EntityState{EntityID: serviceEntity, State: service}
	}
	if wake != "" {
		s[wakeEntity] = hass.EntityState{EntityID: wakeEntity, State: wake}
	}
	for _, name := range active {
		id := "switch.duostream_pc_session_" + config.Canonicalize(name)
		s[id] = hass.EntityState{EntityID: id, State: "on"}
	}
	return s
}

func TestInitialControls(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})

	assert.Equal(t, card.LabelWake, m.view.Wake.Label)
	assert.Equal(t, card.LabelStartService, m.view.Service.Label)
	assert.False(t, m.session.Enabled())
	assert.Equal(t, 5, m.wake.ListenerCount())
	assert.Equal(t, 5, m.service.ListenerCount())
	assert.Equal(t, 5, m.session.ListenerCount())
}

func TestSnapshotUpdatesView(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, cmd := update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"Game A", "Game B"}, "Game A")})
	assert.NotNil(t, cmd, "snapshot must re-arm the read loop")

	assert.Equal(t, "DuoStream Control PC", m.view.Header)
	assert.Equal(t, card.LabelStopService, m.view.Service.Label)
	require.Len(t, m.stops, 1)
	assert.Equal(t, "Game A", m.stops[0].session.Name)
	assert.Equal(t, "Game B", m.view.Dropdown.Selection)
	assert.True(t, m.session.Enabled())
	assert.Equal(t, "Start Game B", m.view.Session.Label)
}

func TestWakeShutdownRebindTarget(t *testing.T) {
	wake := affordance.NewControl(IDWake)
	service := affordance.NewControl(IDService)
	assert.Same(t, wake, wakeShutdownRebindTarget(theme.KindWake, wake, service))
	assert.Same(t, service, wakeShutdownRebindTarget(theme.KindShutdown, wake, service))
}

func TestWakeOnMovesAffordanceToService(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC", WakeOnLANEntity: wakeEntity})

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("on", "off", nil)})
	assert.Equal(t, card.LabelShutdown, m.view.Wake.Label)
	assert.Equal(t, 0, m.wake.ListenerCount(), "wake slot affordance left the wake control")
	assert.Equal(t, 10, m.service.ListenerCount(), "service carries its own and the shutdown affordance")
	assert.Same(t, m.service, m.wakeSlot.aff.Control())
	assert.Equal(t, theme.ColorDanger, m.wake.Style().Background, "wake control shows shutdown colors")
	assert.Equal(t, theme.ColorStart, m.service.Style().Background, "service keeps its own colors")

	m.service.Emit(affordance.PointerDown)
	assert.Equal(t, theme.ColorStartActive, m.service.Style().Background)
	m.service.Emit(affordance.PointerUp)
	assert.Equal(t, theme.ColorStart, m.service.Style().Background)

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("on", "on", nil)})
	assert.Equal(t, theme.ColorDanger, m.service.Style().Background)
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("on", "off", nil)})
	assert.Equal(t, theme.ColorStart, m.service.Style().Background)
	assert.Equal(t, 10, m.service.ListenerCount())

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("off", "off", nil)})
	assert.Equal(t, card.LabelWake, m.view.Wake.Label)
	assert.Equal(t, 5, m.wake.ListenerCount())
	assert.Equal(t, 5, m.service.ListenerCount())
	assert.Equal(t, theme.ColorWake, m.wake.Style().Background)
	assert.Equal(t, theme.ColorStart, m.service.Style().Background)
}

func TestWakeShutdownColorsInDarkTheme(t *testing.T) {
	c, err := card.New(config.Card{DeviceName: "PC", WakeOnLANEntity: wakeEntity})
	require.NoError(t, err)
	m := New(c, Options{Provider: &fakeProvider{}, Dispatcher: &recordingDispatcher{}, Theme: theme.Dark})

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("on", "on", nil)})
	assert.Equal(t, theme.ColorDanger, m.wake.Style().Background)
	assert.Equal(t, theme.ColorDanger, m.service.Style().Background)
	assert.Equal(t, affordance.CursorPointer, m.wake.Style().Cursor)
}

func TestRebindOnlyOnKindChange(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", nil)})
	first := m.serviceSlot.aff

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"X"})})
	assert.Same(t, first, m.serviceSlot.aff)

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "off", nil)})
	assert.NotSame(t, first, m.serviceSlot.aff)
	assert.Equal(t, 5, m.service.ListenerCount())
}

func TestStopRowsAreReplaced(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"A", "B"}, "A", "B")})
	require.Len(t, m.stops, 2)
	old := []*affordance.Control{m.stops[0].control, m.stops[1].control}
	for _, c := range old {
		assert.Equal(t, 5, c.ListenerCount())
	}

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"A", "B"}, "B")})
	require.Len(t, m.stops, 1)
	for _, c := range old {
		assert.Equal(t, 0, c.ListenerCount(), "old rows must be disposed")
	}
	assert.Equal(t, "B", m.stops[0].session.Name)
}

func TestServiceKeyDispatches(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", nil)})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	msgs := drain(cmd)

	assert.Equal(t, []call{{hass.DomainSwitch, hass.ActionOff, serviceEntity}}, d.Calls())
	assert.Contains(t, msgs, tea.Msg(hass.DispatchResultMsg{Action: hass.ActionOff, EntityID: serviceEntity}))
	assert.Contains(t, msgs, tea.Msg(releaseMsg{id: IDService}))

	m, _ = update(t, m, releaseMsg{id: IDService})
	assert.Equal(t, 1.0, m.service.Style().Scale)
}

func TestStartSessionRespectsEnabled(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "off", []string{"Game A"})})
	require.False(t, m.session.Enabled())
	drain(m.activate(IDSession))
	assert.Empty(t, d.Calls())

	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"Game A"})})
	require.True(t, m.session.Enabled())
	drain(m.activate(IDSession))
	assert.Equal(t, []call{{hass.DomainSwitch, hass.ActionOn, "switch.duostream_pc_session_game_a"}}, d.Calls())
}

func TestCycleSelection(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"A", "B", "C"})})
	require.Equal(t, "A", m.view.Dropdown.Selection)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "B", m.view.Dropdown.Selection)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "C", m.view.Dropdown.Selection)

	// The choice survives a snapshot that still offers it.
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"A", "B", "C"}, "A")})
	assert.Equal(t, "C", m.view.Dropdown.Selection)
	assert.Equal(t, "Start C", m.view.Session.Label)
}

func TestWakeWithoutEntityDispatchesNothing(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	drain(cmd)
	assert.Empty(t, d.Calls())
	require.NotEmpty(t, m.debugLog.Entries)
	assert.Contains(t, m.debugLog.Entries[len(m.debugLog.Entries)-1].Message, "no wake-on-LAN entity")
}

func TestWakeToggleDispatch(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC", WakeOnLANEntity: wakeEntity})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("off", "off", nil)})
	drain(m.activate(IDWake))
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("on", "off", nil)})
	drain(m.activate(IDWake))
	assert.Equal(t, []call{
		{hass.DomainSwitch, hass.ActionOn, wakeEntity},
		{hass.DomainSwitch, hass.ActionOff, wakeEntity},
	}, d.Calls())
}

func TestStopKeyDispatchesAndDisposes(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", []string{"A", "B"}, "A", "B")})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.Equal(t, 1, m.cursor)
	stop := m.stops[1].control

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	drain(cmd)
	assert.Equal(t, []call{{hass.DomainSwitch, hass.ActionOff, "switch.duostream_pc_session_b"}}, d.Calls())
	assert.Equal(t, 0, stop.ListenerCount())
}

func TestPointerClick(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "off", nil)})

	m.pointer(IDService, tea.MouseActionMotion, tea.MouseButtonNone)
	assert.True(t, m.service.Style().Hover)

	m.pointer(IDService, tea.MouseActionPress, tea.MouseButtonLeft)
	assert.Equal(t, theme.ColorStartActive, m.service.Style().Background)

	drain(m.pointer(IDService, tea.MouseActionRelease, tea.MouseButtonNone))
	assert.Equal(t, []call{{hass.DomainSwitch, hass.ActionOn, serviceEntity}}, d.Calls())
	assert.Equal(t, theme.ColorStart, m.service.Style().Background)
}

func TestPointerReleaseElsewhereCancels(t *testing.T) {
	m, _, d := newModel(t, config.Card{DeviceName: "PC"})
	m.pointer(IDService, tea.MouseActionPress, tea.MouseButtonLeft)
	drain(m.pointer("", tea.MouseActionRelease, tea.MouseButtonNone))
	assert.Empty(t, d.Calls())
	assert.False(t, m.service.Style().Hover)
	assert.Equal(t, theme.ColorStart, m.service.Style().Background)
}

func TestCardReload(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("", "on", nil)})
	before := m.serviceSlot.aff

	m, _ = update(t, m, config.CardChangedMsg{Card: config.Card{DeviceName: "Living Room"}})
	assert.Equal(t, "DuoStream Control Living Room", m.view.Header)
	assert.NotSame(t, before, m.serviceSlot.aff)
	assert.Equal(t, 5, m.wake.ListenerCount())
	assert.Equal(t, 5, m.service.ListenerCount())
	assert.Equal(t, 5, m.session.ListenerCount())

	// A bad reload keeps the running config.
	m, _ = update(t, m, config.CardChangedMsg{Card: config.Card{}})
	assert.Equal(t, "DuoStream Control Living Room", m.view.Header)
	m, _ = update(t, m, config.CardChangedMsg{Err: errors.New("parse error")})
	assert.Equal(t, "living_room", m.card.Device().Key)
}

func TestConnectionLifecycle(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m, cmd := update(t, m, hass.ConnectedMsg{})
	assert.True(t, m.connected)
	assert.NotNil(t, cmd)

	m, cmd = update(t, m, hass.DisconnectedMsg{Err: errors.New("eof")})
	assert.False(t, m.connected)
	assert.Equal(t, []tea.Msg{hass.ConnectedMsg{}}, drain(cmd), "disconnect reconnects")

	_, cmd = update(t, m, hass.DisconnectedMsg{Err: hass.ErrAuthFailed})
	assert.Nil(t, cmd, "rejected token must not loop")
}

func TestResyncKey(t *testing.T) {
	m, p, _ := newModel(t, config.Card{DeviceName: "PC"})
	p.resyncErr = hass.ErrNotConnected
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 1, p.resyncs)
	assert.Contains(t, m.debugLog.Entries[len(m.debugLog.Entries)-1].Message, "not connected")
}

func TestFrameLoopSettles(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC"})
	m.service.Emit(affordance.PointerDown)
	cmd := m.animate()
	require.NotNil(t, cmd)
	assert.Nil(t, m.animate(), "only one frame loop at a time")

	deadline := time.Now().Add(5 * time.Second)
	for cmd != nil && time.Now().Before(deadline) {
		m, cmd = update(t, m, frameMsg{})
	}
	assert.False(t, m.animating)
	assert.Equal(t, affordance.DefaultScale, m.service.Scale())
}

func TestViewRenders(t *testing.T) {
	m, _, _ := newModel(t, config.Card{DeviceName: "PC", WakeOnLANEntity: wakeEntity})
	assert.Equal(t, "Initializing...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, hass.SnapshotMsg{Snapshot: snapshot("off", "on", []string{"Game A", "Game B"}, "Game A")})
	v := m.View()
	for _, want := range []string{"DuoStream Control PC", "Online", "Running", "Wake PC", "Stop Service", "Game A", "Start Game B"} {
		assert.True(t, strings.Contains(v, want), "view missing %q", want)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Contains(t, m.View(), "DEBUG LOG")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, OverlayNone, m.overlay)
}
