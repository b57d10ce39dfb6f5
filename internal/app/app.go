package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"

	"github.com/duostream/duostream-tui/internal/affordance"
	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
	"github.com/duostream/duostream-tui/internal/registry"
	"github.com/duostream/duostream-tui/internal/theme"
	"github.com/duostream/duostream-tui/internal/views/about"
	"github.com/duostream/duostream-tui/internal/views/controls"
	"github.com/duostream/duostream-tui/internal/views/debug"
	"github.com/duostream/duostream-tui/internal/views/sessions"
	"github.com/duostream/duostream-tui/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayAbout
	OverlayDebug
)

// Control ids. They double as bubblezone ids.
const (
	IDWake     = "wake"
	IDService  = "service"
	IDSession  = "session"
	stopPrefix = "stop:"
)

// releaseDelay is how long a keyboard activation holds the pressed look.
const releaseDelay = 120 * time.Millisecond

type releaseMsg struct{ id string }

type frameMsg struct{}

// slot is one control position and the affordance currently bound for it.
type slot struct {
	kind theme.ButtonKind
	aff  *affordance.Affordance
}

func (s *slot) dispose() {
	if s.aff != nil {
		s.aff.Dispose()
		s.aff = nil
	}
}

type stopRow struct {
	session card.Session
	control *affordance.Control
	aff     *affordance.Affordance
}

// Options wires the model to its collaborators.
type Options struct {
	Provider   hass.Provider
	Dispatcher hass.Dispatcher
	Watcher    *config.CardWatcher // nil disables hot reload
	Catalog    *registry.Catalog
	Logger     *zap.Logger
	Theme      theme.Theme
	Transport  string
	Version    string
}

// Model is the root Bubble Tea model. It binds every snapshot to the card
// and keeps the controls' affordances in step with the result.
type Model struct {
	provider   hass.Provider
	dispatcher hass.Dispatcher
	watcher    *config.CardWatcher
	catalog    *registry.Catalog
	logger     *zap.Logger
	version    string
	ctx        context.Context
	cancel     context.CancelFunc

	keys   KeyMap
	help   help.Model
	theme  theme.Theme
	width  int
	height int

	card *card.Card
	view card.View

	wake, service, session *affordance.Control
	wakeSlot               slot
	serviceSlot            slot
	sessionSlot            slot
	stops                  []stopRow

	cursor    int    // active list selection
	hover     string // control id under the pointer
	pressed   string // control id that took the last pointer down
	animating bool

	overlay   Overlay
	statusBar status.Model
	debugLog  debug.Model

	connected bool
}

// New creates the root model for a configured card.
func New(c *card.Card, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = registry.New()
	}
	m := Model{
		provider:   opts.Provider,
		dispatcher: opts.Dispatcher,
		watcher:    opts.Watcher,
		catalog:    catalog,
		logger:     logger.Named("app"),
		version:    opts.Version,
		ctx:        ctx,
		cancel:     cancel,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      opts.Theme,
		card:       c,
		wake:       affordance.NewControl(IDWake),
		service:    affordance.NewControl(IDService),
		session:    affordance.NewControl(IDSession),
		statusBar:  status.New(opts.Transport),
		debugLog:   debug.New(),
	}
	if m.theme.Name == "" {
		m.theme = theme.Light
	}
	// Controls start from the empty-snapshot defaults until the first push.
	c.Bind(hass.Snapshot{})
	m.apply()
	return m
}

// Init starts the state provider and the card watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.provider.Listen(m.ctx)}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Next(m.ctx))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.overlay != OverlayNone {
			return m, nil
		}
		cmd := m.pointer(m.hit(msg), msg.Action, msg.Button)
		return m, cmd

	case hass.ConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.debugLog.Add(debug.KindConn, "connected")
		return m, m.provider.ReadLoop(m.ctx)

	case hass.DisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if errors.Is(msg.Err, hass.ErrAuthFailed) {
			m.logger.Error("giving up", zap.Error(msg.Err))
			m.debugLog.Addf(debug.KindError, "%v; check the access token", msg.Err)
			return m, nil
		}
		m.logger.Warn("disconnected", zap.Error(msg.Err))
		m.debugLog.Addf(debug.KindConn, "disconnected: %v", msg.Err)
		return m, m.provider.Listen(m.ctx)

	case hass.SnapshotMsg:
		m.card.Bind(msg.Snapshot)
		m.apply()
		return m, tea.Batch(m.provider.ReadLoop(m.ctx), m.animate())

	case hass.ErrorMsg:
		m.logger.Warn("provider error", zap.Error(msg.Err))
		m.debugLog.Addf(debug.KindError, "%v", msg.Err)
		return m, m.provider.ReadLoop(m.ctx)

	case hass.DispatchResultMsg:
		if msg.Err != nil {
			m.logger.Error("dispatch failed", zap.String("action", msg.Action),
				zap.String("entity_id", msg.EntityID), zap.Error(msg.Err))
			m.debugLog.Addf(debug.KindError, "%s %s: %v", msg.Action, msg.EntityID, msg.Err)
			return m, nil
		}
		m.logger.Debug("dispatched", zap.String("action", msg.Action), zap.String("entity_id", msg.EntityID))
		return m, nil

	case config.CardChangedMsg:
		m.reconfigure(msg)
		if m.watcher == nil {
			return m, nil
		}
		return m, m.watcher.Next(m.ctx)

	case releaseMsg:
		if c := m.control(msg.id); c != nil {
			c.Emit(affordance.PointerUp)
		}
		return m, m.animate()

	case frameMsg:
		moving := false
		for _, c := range m.controls() {
			if c.Step() {
				moving = true
			}
		}
		if !moving {
			m.animating = false
			return m, nil
		}
		return m, frame()
	}

	return m, nil
}

// apply pushes the card's current view into the status tiles and controls.
// Affordances are only rebound when a control's semantic kind changed.
func (m *Model) apply() {
	v := m.card.View()
	m.view = v
	m.statusBar.SetView(v, m.card.Device().HasWakeOnLAN())

	if m.bindWake(v.Wake.Kind) && m.wakeSlot.aff.Control() == m.service {
		// The service control's own affordance must register after the
		// shutdown one so its colors win on every event.
		m.serviceSlot.dispose()
	}
	m.bind(&m.serviceSlot, m.service, v.Service.Kind)
	m.bind(&m.sessionSlot, m.session, v.Session.Kind)

	m.wake.SetEnabled(v.Wake.Enabled)
	m.service.SetEnabled(v.Service.Enabled)
	m.session.SetEnabled(v.Session.Enabled)
	if m.wakeSlot.aff.Control() != m.wake {
		m.paint(m.wake, v.Wake.Kind)
	}

	m.rebuildStops(v.Partition.Active)
}

// bind attaches a fresh affordance for kind unless the slot already holds
// one. It reports whether it attached.
func (m *Model) bind(s *slot, c *affordance.Control, kind theme.ButtonKind) bool {
	if s.aff != nil && s.kind == kind {
		return false
	}
	s.dispose()
	s.kind = kind
	s.aff = affordance.Attach(c, affordance.SchemeFor(m.theme, kind))
	m.logger.Debug("bound affordance", zap.String("control", c.ID), zap.Stringer("kind", kind))
	return true
}

func (m *Model) bindWake(kind theme.ButtonKind) bool {
	return m.bind(&m.wakeSlot, wakeShutdownRebindTarget(kind, m.wake, m.service), kind)
}

// paint gives a control without an affordance the resting colors of kind.
func (m *Model) paint(c *affordance.Control, kind theme.ButtonKind) {
	colors := m.theme.Scheme(kind)
	st := c.Style()
	st.Scale = 1
	st.Shadow = false
	if c.Enabled() {
		st.Background = colors.Normal
		st.Cursor = affordance.CursorPointer
	} else {
		st.Background = colors.Disabled
		st.Cursor = affordance.CursorNotAllowed
	}
	c.SetStyle(st)
}

// wakeShutdownRebindTarget picks the control the wake slot's affordance is
// attached to. With shutdown semantics that is the service control: the
// wake control keeps its shutdown label and color but loses press feedback.
// TODO: move the shutdown scheme onto the wake control once product
// confirms the service control was never meant to receive it.
func wakeShutdownRebindTarget(kind theme.ButtonKind, wake, service *affordance.Control) *affordance.Control {
	if kind == theme.KindShutdown {
		return service
	}
	return wake
}

// rebuildStops replaces every stop row. Old rows are disposed first.
func (m *Model) rebuildStops(active []card.Session) {
	for _, r := range m.stops {
		r.aff.Dispose()
	}
	rows := make([]stopRow, len(active))
	for i, s := range active {
		c := affordance.NewControl(stopID(i))
		rows[i] = stopRow{
			session: s,
			control: c,
			aff:     affordance.Attach(c, affordance.SchemeFor(m.theme, theme.KindStopSession)),
		}
	}
	m.stops = rows
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
}

// reconfigure applies a reloaded card file. Every affordance is disposed
// and attached again against the new device.
func (m *Model) reconfigure(msg config.CardChangedMsg) {
	if msg.Err != nil {
		m.logger.Warn("card reload failed", zap.Error(msg.Err))
		m.debugLog.Addf(debug.KindError, "card reload: %v", msg.Err)
		return
	}
	if err := m.card.SetConfig(msg.Card); err != nil {
		m.logger.Warn("card config rejected", zap.Error(err))
		m.debugLog.Addf(debug.KindError, "card config: %v", err)
		return
	}
	m.wakeSlot.dispose()
	m.serviceSlot.dispose()
	m.sessionSlot.dispose()
	m.apply()
	m.logger.Info("card reloaded", zap.String("device", m.card.Device().Name))
	m.debugLog.Addf(debug.KindConfig, "card reloaded: %s", m.card.Device().Name)
}

func stopID(i int) string {
	return stopPrefix + strconv.Itoa(i)
}

func (m *Model) control(id string) *affordance.Control {
	switch id {
	case IDWake:
		return m.wake
	case IDService:
		return m.service
	case IDSession:
		return m.session
	}
	if rest, ok := strings.CutPrefix(id, stopPrefix); ok {
		i, err := strconv.Atoi(rest)
		if err == nil && i >= 0 && i < len(m.stops) {
			return m.stops[i].control
		}
	}
	return nil
}

func (m *Model) controls() []*affordance.Control {
	out := []*affordance.Control{m.wake, m.service, m.session}
	for _, r := range m.stops {
		out = append(out, r.control)
	}
	return out
}

// activate runs a control's action. Disabled controls and controls
// without a target entity do nothing.
func (m *Model) activate(id string) tea.Cmd {
	c := m.control(id)
	if c == nil || !c.Enabled() {
		return nil
	}
	switch id {
	case IDWake:
		if m.view.Wake.EntityID == "" {
			m.logger.Info("wake pressed without a wake-on-LAN entity")
			m.debugLog.Add(debug.KindDispatch, "no wake-on-LAN entity configured")
			return nil
		}
		return m.dispatch(m.view.Wake.Action, m.view.Wake.EntityID)
	case IDService:
		return m.dispatch(m.view.Service.Action, m.view.Service.EntityID)
	case IDSession:
		if m.view.Session.EntityID == "" {
			return nil
		}
		return m.dispatch(m.view.Session.Action, m.view.Session.EntityID)
	}
	for _, r := range m.stops {
		if r.control == c {
			stop := card.StopControl(r.session)
			r.aff.Dispose()
			return m.dispatch(stop.Action, stop.EntityID)
		}
	}
	return nil
}

func (m *Model) dispatch(action, entityID string) tea.Cmd {
	m.logger.Info("dispatch", zap.String("action", action), zap.String("entity_id", entityID))
	m.debugLog.Addf(debug.KindDispatch, "%s %s", action, entityID)
	return hass.DispatchCmd(m.ctx, m.dispatcher, action, entityID)
}

// press is a keyboard activation: pointer down, the action, then a
// delayed pointer up.
func (m *Model) press(id string) tea.Cmd {
	c := m.control(id)
	if c == nil {
		return nil
	}
	c.Emit(affordance.PointerDown)
	cmd := m.activate(id)
	release := tea.Tick(releaseDelay, func(time.Time) tea.Msg { return releaseMsg{id: id} })
	return tea.Batch(cmd, release, m.animate())
}

// hit returns the id of the zone under the mouse, or "".
func (m *Model) hit(msg tea.MouseMsg) string {
	ids := []string{IDWake, IDService, IDSession, controls.ZonePrev, controls.ZoneNext}
	for i := range m.stops {
		ids = append(ids, stopID(i))
	}
	for _, id := range ids {
		if z := zone.Get(id); z != nil && z.InBounds(msg) {
			return id
		}
	}
	return ""
}

// pointer translates a mouse action over the zone id into control events.
// A click activates only when the release lands on the pressed control.
func (m *Model) pointer(id string, action tea.MouseAction, button tea.MouseButton) tea.Cmd {
	if id != m.hover {
		if c := m.control(m.hover); c != nil {
			c.Emit(affordance.PointerLeave)
		}
		if c := m.control(id); c != nil {
			c.Emit(affordance.PointerEnter)
		}
		m.hover = id
	}

	switch action {
	case tea.MouseActionPress:
		if button != tea.MouseButtonLeft {
			return nil
		}
		switch id {
		case controls.ZonePrev:
			m.cycle(-1)
			return nil
		case controls.ZoneNext:
			m.cycle(1)
			return nil
		}
		if c := m.control(id); c != nil {
			c.Emit(affordance.PointerDown)
			m.pressed = id
		}
	case tea.MouseActionRelease:
		pressed := m.pressed
		m.pressed = ""
		c := m.control(pressed)
		if c == nil {
			break
		}
		c.Emit(affordance.PointerUp)
		if id == pressed {
			return tea.Batch(m.activate(pressed), m.animate())
		}
	}
	return m.animate()
}

// cycle moves the dropdown selection.
func (m *Model) cycle(delta int) {
	if !m.card.Select(m.view.Dropdown.Cycle(delta)) {
		return
	}
	m.view = m.card.View()
	m.session.SetEnabled(m.view.Session.Enabled)
}

// animate starts the frame loop if a control is moving and none is running.
func (m *Model) animate() tea.Cmd {
	if m.animating {
		return nil
	}
	for _, c := range m.controls() {
		if c.Animating() {
			m.animating = true
			return frame()
		}
	}
	return nil
}

func frame() tea.Cmd {
	return tea.Tick(affordance.FrameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
			m.debugLog.ScrollUp(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
			m.debugLog.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Wake):
		return m, m.press(IDWake)

	case key.Matches(msg, m.keys.Service):
		return m, m.press(IDService)

	case key.Matches(msg, m.keys.Start):
		return m, m.press(IDSession)

	case key.Matches(msg, m.keys.Prev):
		m.cycle(-1)
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.cycle(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if len(m.stops) > 0 {
			m.cursor = (m.cursor + 1) % len(m.stops)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.stops) > 0 {
			m.cursor = (m.cursor - 1 + len(m.stops)) % len(m.stops)
		}
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		if len(m.stops) == 0 {
			return m, nil
		}
		return m, m.press(stopID(m.cursor))

	case key.Matches(msg, m.keys.Resync):
		if err := m.provider.Resync(); err != nil {
			m.logger.Warn("resync failed", zap.Error(err))
			m.debugLog.Addf(debug.KindError, "resync: %v", err)
		} else {
			m.debugLog.Add(debug.KindConn, "resync requested")
		}
		return m, nil

	case key.Matches(msg, m.keys.About):
		m.overlay = OverlayAbout
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayAbout:
		body = about.View(m.theme, m.catalog.Entries(), m.keys.All(), m.version, m.width)
	case OverlayDebug:
		body = m.debugLog.View(m.theme, m.width, m.height)
	default:
		body = m.renderCard()
	}

	if m.theme.CardBg != "" {
		body = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, body,
			lipgloss.WithWhitespaceBackground(m.theme.CardBg))
	}
	return zone.Scan(body)
}

func (m Model) renderCard() string {
	t := m.theme
	w := max(m.width, 40)
	half := (w - 1) / 2
	v := m.view

	rows := make([]sessions.Row, len(m.stops))
	for i, r := range m.stops {
		rows[i] = sessions.Row{Session: r.session, Stop: r.control}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.Bar(t),
		" "+t.Header().Render(v.Header),
		m.statusBar.Tiles(t),
		controls.Row(
			controls.Button(m.wake, v.Wake.Label, half),
			controls.Button(m.service, v.Service.Label, w-1-half),
		),
		sessions.View(t, rows, m.cursor, w),
		controls.Row(
			controls.Picker(t, v.Dropdown, half),
			controls.Button(m.session, v.Session.Label, w-1-half),
		),
		m.help.View(m.keys),
	)
}
