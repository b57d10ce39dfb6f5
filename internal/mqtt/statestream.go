package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Statestream topic leaves the widget reads.
const (
	leafState             = "state"
	leafAvailableSessions = "available_sessions"
)

// StateStream is a hass.Provider fed by mqtt_statestream. Every entity is
// published under <base>/<domain>/<object_id>/<leaf>, where leaf is
// "state" or a JSON-encoded attribute.
type StateStream struct {
	client *Client
	base   string
	logger *zap.Logger

	mu        sync.Mutex
	states    hass.Snapshot
	connected bool

	updates chan struct{} // coalesced; capacity 1
	lost    chan error    // capacity 1
}

var _ hass.Provider = (*StateStream)(nil)

// NewStateStream creates a provider for the broker in cfg.
func NewStateStream(cfg config.MQTTSettings, logger *zap.Logger) *StateStream {
	s := newStateStream(nil, cfg.StateTopic, logger)
	opts := OptsFromConfig(cfg)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.connectionLost(err)
	})
	s.client = newClient(pahomqtt.NewClient(opts))
	return s
}

func newStateStream(sess session, base string, logger *zap.Logger) *StateStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StateStream{
		base:    strings.TrimSuffix(base, "/"),
		logger:  logger.Named("mqtt.statestream"),
		states:  make(hass.Snapshot),
		updates: make(chan struct{}, 1),
		lost:    make(chan error, 1),
	}
	if sess != nil {
		s.client = newClient(sess)
	}
	return s
}

// Client returns the broker client so a Dispatcher can share the
// connection.
func (s *StateStream) Client() *Client {
	return s.client
}

// Listen connects and subscribes to the statestream tree, retrying with
// exponential backoff until ctx ends.
func (s *StateStream) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			// Drop a stale loss notice from the previous connection.
			select {
			case <-s.lost:
			default:
			}

			if err := s.client.Connect(); err != nil {
				s.logger.Warn("connect failed", zap.Error(err), zap.Duration("retry_in", delay))
				if !sleepCtx(ctx, delay) {
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			s.mu.Lock()
			s.states = make(hass.Snapshot)
			s.connected = true
			s.mu.Unlock()

			if err := s.client.Subscribe(s.base+"/#", s.handle); err != nil {
				s.logger.Warn("subscribe failed", zap.Error(err))
				s.setConnected(false)
				s.client.Disconnect()
				if !sleepCtx(ctx, delay) {
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			s.logger.Info("connected", zap.String("topic", s.base))
			return hass.ConnectedMsg{}
		}
	}
}

// ReadLoop waits for the next state change or connection loss.
func (s *StateStream) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case err := <-s.lost:
			return hass.DisconnectedMsg{Err: err}
		default:
		}

		s.mu.Lock()
		connected := s.connected
		s.mu.Unlock()
		if !connected {
			return hass.DisconnectedMsg{Err: hass.ErrNotConnected}
		}

		select {
		case <-ctx.Done():
			return nil
		case err := <-s.lost:
			return hass.DisconnectedMsg{Err: err}
		case <-s.updates:
			s.mu.Lock()
			snap := s.states.Clone()
			s.mu.Unlock()
			return hass.SnapshotMsg{Snapshot: snap}
		}
	}
}

// Resync re-subscribes so the broker redelivers every retained state.
func (s *StateStream) Resync() error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return hass.ErrNotConnected
	}
	topic := s.base + "/#"
	if err := s.client.Unsubscribe(topic); err != nil {
		return fmt.Errorf("resync: %w", err)
	}
	if err := s.client.Subscribe(topic, s.handle); err != nil {
		return fmt.Errorf("resync: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *StateStream) Close() {
	s.setConnected(false)
	s.client.Disconnect()
}

func (s *StateStream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *StateStream) connectionLost(err error) {
	s.setConnected(false)
	s.logger.Warn("connection lost", zap.Error(err))
	select {
	case s.lost <- err:
	default:
	}
}

func (s *StateStream) handle(_ pahomqtt.Client, m pahomqtt.Message) {
	if s.apply(m.Topic(), m.Payload()) {
		select {
		case s.updates <- struct{}{}:
		default:
		}
	}
}

// apply folds one statestream message into the state table and reports
// whether anything the widget reads changed.
func (s *StateStream) apply(topic string, payload []byte) bool {
	entityID, leaf, ok := parseTopic(s.base, topic)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, present := s.states[entityID]
	e.EntityID = entityID
	switch leaf {
	case leafState:
		if len(payload) == 0 {
			// Empty retained payload clears the entity.
			if !present {
				return false
			}
			delete(s.states, entityID)
			return true
		}
		e.State = string(payload)
	case leafAvailableSessions:
		var sessions []string
		if err := json.Unmarshal(payload, &sessions); err != nil {
			s.logger.Debug("bad available_sessions payload", zap.String("entity_id", entityID), zap.Error(err))
			return false
		}
		e.Attributes.AvailableSessions = sessions
	default:
		return false
	}
	s.states[entityID] = e
	return true
}

// parseTopic splits <base>/<domain>/<object_id>/<leaf> into an entity id
// and a leaf.
func parseTopic(base, topic string) (entityID, leaf string, ok bool) {
	rest, found := strings.CutPrefix(topic, base+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0] + "." + parts[1], parts[2], true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
