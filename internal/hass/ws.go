package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
	authTimeout        = 10 * time.Second
)

// WSClient manages the websocket connection to Home Assistant. It keeps
// the latest state of every entity and emits a full snapshot whenever
// one of them changes.
type WSClient struct {
	url    string
	token  string
	logger *zap.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex // serialises all conn writes (ping, resync, subscribe)
	conn     *websocket.Conn
	nextID   uint64
	statesID uint64 // id of the outstanding get_states request
	states   Snapshot
	loaded   bool               // states holds a full get_states result
	pingCtx  context.CancelFunc // cancels the active ping goroutine

	// Dialer may be replaced in tests.
	Dialer *websocket.Dialer
}

// NewWSClient creates a client for the websocket API at url
// (e.g. "ws://homeassistant.local:8123/api/websocket").
func NewWSClient(url, token string, logger *zap.Logger) *WSClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSClient{
		url:    url,
		token:  token,
		logger: logger.Named("hass.ws"),
		Dialer: websocket.DefaultDialer,
	}
}

// Listen returns a command that connects, authenticates and subscribes to
// state changes. It reconnects with exponential backoff until ctx ends.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			conn, _, err := c.Dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				c.logger.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", delay))
				if !sleepCtx(ctx, delay) {
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			// The connection isn't shared yet (not stored in c.conn), so no
			// write mutex is needed for the handshake.
			if err := c.authenticate(conn); err != nil {
				conn.Close()
				if err == ErrAuthFailed {
					return DisconnectedMsg{Err: err}
				}
				c.logger.Warn("auth handshake failed", zap.Error(err))
				if !sleepCtx(ctx, delay) {
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.nextID = 0
			c.states = make(Snapshot)
			c.loaded = false
			c.pingCtx = pingCancel
			statesID := c.allocID()
			c.statesID = statesID
			subID := c.allocID()
			c.mu.Unlock()

			if err := c.subscribe(conn, statesID, subID); err != nil {
				pingCancel()
				conn.Close()
				c.logger.Warn("subscribe failed", zap.Error(err))
				if !sleepCtx(ctx, delay) {
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			go c.pingLoop(pingCtx, conn)

			c.logger.Info("connected", zap.String("url", c.url))
			return ConnectedMsg{}
		}
	}
}

// authenticate runs the auth_required / auth / auth_ok exchange.
func (c *WSClient) authenticate(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected %q before auth", msg.Type)
	}
	if err := conn.WriteJSON(map[string]string{"type": "auth", "access_token": c.token}); err != nil {
		return err
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	switch msg.Type {
	case "auth_ok":
		return nil
	case "auth_invalid":
		c.logger.Error("access token rejected", zap.String("message", msg.Message))
		return ErrAuthFailed
	default:
		return fmt.Errorf("unexpected %q during auth", msg.Type)
	}
}

func (c *WSClient) subscribe(conn *websocket.Conn, statesID, subID uint64) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(map[string]any{"id": statesID, "type": "get_states"}); err != nil {
		return err
	}
	return conn.WriteJSON(map[string]any{"id": subID, "type": "subscribe_events", "event_type": "state_changed"})
}

// ReadLoop returns a command that reads until the next message worth
// surfacing. It should be started after receiving ConnectedMsg.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: ErrNotConnected}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				c.logger.Info("disconnected", zap.Error(err))
				return DisconnectedMsg{Err: err}
			}

			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.logger.Debug("dropping malformed frame", zap.Error(err))
				continue
			}

			if teaMsg := c.dispatch(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

func (c *WSClient) dispatch(msg wsMessage) tea.Msg {
	switch msg.Type {
	case "result":
		if msg.Success != nil && !*msg.Success {
			if msg.Error != nil {
				return ErrorMsg{Err: msg.Error}
			}
			return ErrorMsg{Err: fmt.Errorf("request %d failed", msg.ID)}
		}
		c.mu.Lock()
		isStates := msg.ID == c.statesID
		c.mu.Unlock()
		if !isStates {
			return nil
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(msg.Result, &raw); err != nil {
			return ErrorMsg{Err: fmt.Errorf("decode get_states: %w", err)}
		}
		states := make([]EntityState, 0, len(raw))
		for _, r := range raw {
			var s EntityState
			if err := json.Unmarshal(r, &s); err != nil {
				c.logger.Debug("skipping undecodable entity", zap.Error(err))
				continue
			}
			states = append(states, s)
		}
		c.mu.Lock()
		c.states = make(Snapshot, len(states))
		for _, s := range states {
			c.states[s.EntityID] = s
		}
		c.loaded = true
		snap := c.states.Clone()
		c.mu.Unlock()
		return SnapshotMsg{Snapshot: snap}

	case "event":
		if msg.Event == nil || msg.Event.EventType != "state_changed" {
			return nil
		}
		d := msg.Event.Data
		c.mu.Lock()
		if c.states == nil {
			c.states = make(Snapshot)
		}
		if d.NewState == nil {
			delete(c.states, d.EntityID)
		} else {
			s := *d.NewState
			s.EntityID = d.EntityID
			c.states[d.EntityID] = s
		}
		if !c.loaded {
			c.mu.Unlock()
			return nil
		}
		snap := c.states.Clone()
		c.mu.Unlock()
		return SnapshotMsg{Snapshot: snap}
	}
	return nil
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Resync requests a fresh get_states; the result replaces every cached state.
func (c *WSClient) Resync() error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	id := c.allocID()
	c.statesID = id
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(map[string]any{"id": id, "type": "get_states"})
}

// allocID returns the next request id. c.mu must be held.
func (c *WSClient) allocID() uint64 {
	c.nextID++
	return c.nextID
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
