package card

import "github.com/duostream/duostream-tui/internal/hass"

// Session is one named session and the switch controlling it.
type Session struct {
	Name     string
	EntityID string
}

// Partition splits the known sessions into running and stopped ones. Both
// lists keep upstream order, and together they hold every upstream entry
// exactly once.
type Partition struct {
	Active   []Session
	Inactive []Session
}

// PartitionSessions classifies every available session by its switch
// state. Names that canonicalize to the same id share a switch, but
// duplicates in the upstream list are kept as duplicate entries.
func PartitionSessions(r Reader, s hass.Snapshot) Partition {
	var p Partition
	for _, name := range r.Sessions(s) {
		sess := Session{Name: name, EntityID: r.Device.SessionEntity(name)}
		if r.Session(s, sess.EntityID) == StatusOn {
			p.Active = append(p.Active, sess)
		} else {
			p.Inactive = append(p.Inactive, sess)
		}
	}
	return p
}

// Names returns the display names of sessions.
func Names(sessions []Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.Name
	}
	return out
}
