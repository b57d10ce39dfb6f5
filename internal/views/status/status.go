package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/theme"
)

// Model holds the status bar and tile state.
type Model struct {
	Connected     bool
	Transport     string
	PCStatus      string
	ServiceStatus string
	WakeStatus    string
	ShowWake      bool
	Width         int
}

// New creates a status model with every status unknown.
func New(transport string) Model {
	return Model{
		Transport:     transport,
		PCStatus:      card.StatusUnknown,
		ServiceStatus: card.StatusUnknown,
		WakeStatus:    card.StatusUnknown,
	}
}

// SetView copies the statuses out of a card view.
func (m *Model) SetView(v card.View, showWake bool) {
	m.PCStatus = v.PCStatus
	m.ServiceStatus = v.ServiceStatus
	m.WakeStatus = v.WakeStatus
	m.ShowWake = showWake
}

// Bar renders the connection line.
func (m Model) Bar(t theme.Theme) string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorOffline).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(t.Border).Render(" | ")
	content := connStr + sep + t.Dimmed().Render(m.Transport)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(t.Border).
		Render(content)
}

// Tiles renders the PC and service status boxes side by side, plus the
// wake-on-LAN state when one is configured.
func (m Model) Tiles(t theme.Theme) string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	n := 2
	if m.ShowWake {
		n = 3
	}
	tileW := (width - (n - 1)) / n

	tiles := []string{
		tile(t, "PC", m.PCStatus, tileW),
		" ",
		tile(t, "Service", m.ServiceStatus, tileW),
	}
	if m.ShowWake {
		tiles = append(tiles, " ", tile(t, "Wake-on-LAN", m.WakeStatus, tileW))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

func tile(t theme.Theme, title, status string, width int) string {
	value := lipgloss.NewStyle().
		Foreground(theme.StatusColor(status)).
		Render(fmt.Sprintf("● %s", card.Capitalize(status)))
	content := lipgloss.JoinVertical(lipgloss.Left,
		t.Header().Render(title),
		value,
	)
	box := t.Box().Background(t.StatusBoxBg)
	if width > 2 {
		box = box.Width(width - 2)
	}
	return box.Render(content)
}
