package card

import (
	"github.com/duostream/duostream-tui/internal/hass"
	"github.com/duostream/duostream-tui/internal/theme"
)

// Control labels.
const (
	LabelWake         = "Wake PC"
	LabelShutdown     = "Shutdown PC"
	LabelStartService = "Start Service"
	LabelStopService  = "Stop Service"
	LabelNoSessions   = "No Sessions Available"
)

// ControlState is what a control shows and what pressing it dispatches.
type ControlState struct {
	Kind     theme.ButtonKind
	Label    string
	Enabled  bool
	Action   string
	EntityID string
}

// WakeControl toggles between wake and shutdown semantics.
func WakeControl(entityID, wakeStatus string) ControlState {
	if wakeStatus == StatusOn {
		return ControlState{Kind: theme.KindShutdown, Label: LabelShutdown, Enabled: true, Action: hass.ActionOff, EntityID: entityID}
	}
	return ControlState{Kind: theme.KindWake, Label: LabelWake, Enabled: true, Action: hass.ActionOn, EntityID: entityID}
}

// ServiceControl toggles between start and stop semantics.
func ServiceControl(entityID, serviceStatus string) ControlState {
	if serviceStatus == StatusRunning {
		return ControlState{Kind: theme.KindStopService, Label: LabelStopService, Enabled: true, Action: hass.ActionOff, EntityID: entityID}
	}
	return ControlState{Kind: theme.KindStartService, Label: LabelStartService, Enabled: true, Action: hass.ActionOn, EntityID: entityID}
}

// SessionControl starts the selected session.
func SessionControl(r Reader, d Dropdown) ControlState {
	if !d.Enabled {
		return ControlState{Kind: theme.KindSession, Label: LabelNoSessions, Action: hass.ActionOn}
	}
	return ControlState{
		Kind:     theme.KindSession,
		Label:    "Start " + d.Selection,
		Enabled:  true,
		Action:   hass.ActionOn,
		EntityID: r.Device.SessionEntity(d.Selection),
	}
}

// StopControl stops one active session.
func StopControl(s Session) ControlState {
	return ControlState{Kind: theme.KindStopSession, Label: "✕", Enabled: true, Action: hass.ActionOff, EntityID: s.EntityID}
}
