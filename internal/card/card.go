package card

import (
	"unicode"
	"unicode/utf8"

	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
	"github.com/duostream/duostream-tui/internal/registry"
)

// PreferredSize is the number of grid rows the card asks its host for.
const PreferredSize = 5

// NoActiveSessionsLabel is rendered in place of an empty active list.
const NoActiveSessionsLabel = "No active sessions"

// CatalogEntry describes the card to a host's widget catalog.
var CatalogEntry = registry.Entry{
	Type:        "duostream-card",
	Name:        "DuoStream Card",
	Description: "Control DuoStream and computer with active sessions display and Wake-on-LAN functionality",
}

// Widget is the capability set a host needs to embed a card.
type Widget interface {
	SetConfig(c config.Card) error
	Bind(s hass.Snapshot)
	PreferredSize() int
}

// View is everything the UI renders for one snapshot.
type View struct {
	Header        string
	PCStatus      string // raw value
	ServiceStatus string // running, stopped or unknown
	WakeStatus    string
	Wake          ControlState
	Service       ControlState
	Session       ControlState
	Partition     Partition
	Dropdown      Dropdown
}

// Card mirrors one DuoStream device. Its only state across snapshots is the
// selected session.
type Card struct {
	reader     Reader
	configured bool
	selection  string
	last       hass.Snapshot
	view       View
}

var _ Widget = (*Card)(nil)

// New builds a configured card. It fails when the config is unusable.
func New(c config.Card) (*Card, error) {
	card := &Card{}
	if err := card.SetConfig(c); err != nil {
		return nil, err
	}
	return card, nil
}

// SetConfig validates c and derives the entity names. On error the card
// keeps its previous configuration.
func (c *Card) SetConfig(cfg config.Card) error {
	d, err := config.NewDevice(cfg)
	if err != nil {
		return err
	}
	c.reader = Reader{Device: d}
	c.configured = true
	if c.last != nil {
		c.Bind(c.last)
	}
	return nil
}

// Device returns the configured naming context.
func (c *Card) Device() config.Device {
	return c.reader.Device
}

// Bind reconciles a new snapshot. It is a no-op before SetConfig.
func (c *Card) Bind(s hass.Snapshot) {
	c.last = s
	if !c.configured {
		return
	}
	r := c.reader
	v := View{
		Header:        "DuoStream Control " + r.Device.Name,
		PCStatus:      r.PC(s),
		ServiceStatus: r.Service(s),
		WakeStatus:    r.Wake(s),
		Partition:     PartitionSessions(r, s),
	}
	v.Wake = WakeControl(r.Device.WakeOnLANEntity, v.WakeStatus)
	v.Service = ServiceControl(r.Device.ServiceEntity, v.ServiceStatus)
	v.Dropdown = Reconcile(v.Partition.Inactive, c.selection, v.ServiceStatus)
	v.Session = SessionControl(r, v.Dropdown)

	c.selection = v.Dropdown.Selection
	c.view = v
}

// Select records a user choice from the dropdown. Values that are not
// selectable options are ignored.
func (c *Card) Select(name string) bool {
	if !c.view.Dropdown.Has(name) {
		return false
	}
	c.selection = name
	c.view.Dropdown.Selection = name
	c.view.Dropdown.Enabled = StartEnabled(name, c.view.ServiceStatus)
	c.view.Session = SessionControl(c.reader, c.view.Dropdown)
	return true
}

// Selection returns the current dropdown selection.
func (c *Card) Selection() string {
	return c.selection
}

// View returns the result of the last Bind.
func (c *Card) View() View {
	return c.view
}

// PreferredSize implements Widget.
func (c *Card) PreferredSize() int {
	return PreferredSize
}

// Capitalize upper-cases the first letter of a status word.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

