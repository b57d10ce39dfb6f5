// Package controls renders buttons and the session picker. Every rendered
// control is wrapped in a bubblezone mark named after its control id so
// mouse events can be mapped back to it.
package controls

import (
	"math"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/duostream/duostream-tui/internal/affordance"
	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/theme"
)

// Zone ids for the picker arrows.
const (
	ZonePrev = "picker:prev"
	ZoneNext = "picker:next"
)

const basePad = 2

// Button renders c with label at the given width. A compressed scale eats
// into the padding and gives it back as margin, so the outer width stays
// fixed while the press animates.
func Button(c *affordance.Control, label string, width int) string {
	st := c.Style()

	shrink := int(math.Round((1 - c.Scale()) / (1 - affordance.DefaultScale)))
	shrink = max(0, min(shrink, basePad))

	s := lipgloss.NewStyle().
		Foreground(theme.ColorButtonText).
		Background(st.Background).
		Padding(0, basePad-shrink).
		Margin(0, shrink).
		Align(lipgloss.Center).
		Bold(st.Shadow).
		Underline(st.Hover && c.Enabled()).
		Faint(!c.Enabled())
	if width > 0 {
		s = s.Width(max(width-2*shrink, 0))
	}
	return zone.Mark(c.ID, s.Render(label))
}

// Row lays buttons out side by side with a one column gap.
func Row(buttons ...string) string {
	parts := make([]string, 0, 2*len(buttons))
	for i, b := range buttons {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// Picker renders the session dropdown as "◀ selection ▶".
func Picker(t theme.Theme, d card.Dropdown, width int) string {
	label := card.PlaceholderLabel
	if d.Selection != card.NoSelection {
		label = d.Selection
	}
	arrow := lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	body := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.StatusBoxBg).
		Padding(0, 1)
	selectable := 0
	for _, o := range d.Options {
		if !o.Disabled {
			selectable++
		}
	}
	if selectable == 0 {
		arrow = arrow.Foreground(t.Disabled)
		body = body.Foreground(t.Subtitle)
	}
	if width > 4 {
		body = body.Width(width - 4)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		zone.Mark(ZonePrev, arrow.Render("◀ ")),
		body.Render(label),
		zone.Mark(ZoneNext, arrow.Render(" ▶")),
	)
}
