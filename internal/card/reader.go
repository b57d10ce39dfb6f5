// Package card is the state reconciliation engine of the DuoStream widget.
// It turns a raw Home Assistant snapshot into the statuses, session lists
// and control states the UI renders. Nothing here blocks or fails: missing
// entities resolve to defaults.
package card

import (
	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
)

// Status words.
const (
	StatusUnknown = "unknown"
	StatusOn      = "on"
	StatusOff     = "off"
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Reader extracts typed status values for one device from snapshots.
type Reader struct {
	Device config.Device
}

// Read returns the entity's state, or fallback when it is absent.
func (r Reader) Read(s hass.Snapshot, entityID, fallback string) string {
	if e, ok := s.Get(entityID); ok {
		return e.State
	}
	return fallback
}

// PC returns the computer status sensor value.
func (r Reader) PC(s hass.Snapshot) string {
	return r.Read(s, r.Device.PCEntity, StatusUnknown)
}

// Service maps the service switch to "running" or "stopped".
func (r Reader) Service(s hass.Snapshot) string {
	e, ok := s.Get(r.Device.ServiceEntity)
	if !ok {
		return StatusUnknown
	}
	if e.State == StatusOn {
		return StatusRunning
	}
	return StatusStopped
}

// Wake returns the wake-on-LAN switch state. Without a configured entity
// it is always unknown.
func (r Reader) Wake(s hass.Snapshot) string {
	if !r.Device.HasWakeOnLAN() {
		return StatusUnknown
	}
	return r.Read(s, r.Device.WakeOnLANEntity, StatusUnknown)
}

// Session returns a session switch state; unlisted switches count as off.
func (r Reader) Session(s hass.Snapshot, entityID string) string {
	return r.Read(s, entityID, StatusOff)
}

// Sessions returns the available session names in upstream order.
func (r Reader) Sessions(s hass.Snapshot) []string {
	e, ok := s.Get(r.Device.SessionsSensor)
	if !ok {
		return nil
	}
	return e.Attributes.AvailableSessions
}
