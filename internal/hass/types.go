// Package hass talks to Home Assistant: it turns the websocket API into a
// stream of full state snapshots and dispatches switch services over REST.
// Types mirror the Home Assistant wire format without pulling in any of its
// client libraries.
package hass

import (
	"context"
	"encoding/json"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Service domain and actions used by the widget.
const (
	DomainSwitch = "switch"
	ActionOn     = "turn_on"
	ActionOff    = "turn_off"
)

var (
	// ErrNotConnected is returned when a write is attempted with no live connection.
	ErrNotConnected = errors.New("not connected")
	// ErrAuthFailed is returned when Home Assistant rejects the access token.
	ErrAuthFailed = errors.New("authentication rejected")
)

// Attributes holds the entity attributes the widget reads. Everything else
// Home Assistant sends is ignored.
type Attributes struct {
	AvailableSessions []string `json:"available_sessions,omitempty"`
}

// EntityState is one entity's state as seen in a snapshot.
type EntityState struct {
	EntityID   string     `json:"entity_id"`
	State      string     `json:"state"`
	Attributes Attributes `json:"attributes"`
}

// Snapshot maps entity ids to their state at one point in time. Absent
// entities are not errors.
type Snapshot map[string]EntityState

// Get returns the entity and whether it was present.
func (s Snapshot) Get(entityID string) (EntityState, bool) {
	if s == nil {
		return EntityState{}, false
	}
	e, ok := s[entityID]
	return e, ok
}

// Clone returns a copy that shares no maps or slices with s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, e := range s {
		if e.Attributes.AvailableSessions != nil {
			e.Attributes.AvailableSessions = append([]string(nil), e.Attributes.AvailableSessions...)
		}
		out[id] = e
	}
	return out
}

// Provider delivers snapshots into a Bubble Tea program. Listen connects
// (retrying with backoff) and yields ConnectedMsg; ReadLoop yields the next
// SnapshotMsg, ErrorMsg or DisconnectedMsg and must be reissued after each.
type Provider interface {
	Listen(ctx context.Context) tea.Cmd
	ReadLoop(ctx context.Context) tea.Cmd
	Resync() error
}

// Dispatcher invokes a service on an entity. Callers never retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, domain, action, entityID string) error
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when a provider is connected and subscribed.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// SnapshotMsg delivers a full state snapshot. The receiver owns Snapshot.
type SnapshotMsg struct{ Snapshot Snapshot }

// ErrorMsg wraps a server-side error that did not end the connection.
type ErrorMsg struct{ Err error }

// DispatchResultMsg reports the outcome of a fire-and-forget Dispatch.
type DispatchResultMsg struct {
	Action   string
	EntityID string
	Err      error
}

// DispatchCmd wraps a dispatch in a command so it runs off the update loop.
func DispatchCmd(ctx context.Context, d Dispatcher, action, entityID string) tea.Cmd {
	return func() tea.Msg {
		err := d.Dispatch(ctx, DomainSwitch, action, entityID)
		return DispatchResultMsg{Action: action, EntityID: entityID, Err: err}
	}
}

// wsMessage is the envelope for all Home Assistant websocket messages.
type wsMessage struct {
	ID      uint64          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Event   *wsEvent        `json:"event,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type wsEvent struct {
	EventType string          `json:"event_type"`
	Data      stateChangeData `json:"data"`
}

type stateChangeData struct {
	EntityID string       `json:"entity_id"`
	NewState *EntityState `json:"new_state"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return e.Code + ": " + e.Message
}
