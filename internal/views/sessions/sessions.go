// Package sessions renders the active-session list with one stop button
// per row.
package sessions

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/duostream/duostream-tui/internal/affordance"
	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/theme"
	"github.com/duostream/duostream-tui/internal/views/controls"
)

// Row is one active session and its stop control.
type Row struct {
	Session card.Session
	Stop    *affordance.Control
}

// View renders rows inside the list box. cursor marks the keyboard
// selection; pass -1 for none.
func View(t theme.Theme, rows []Row, cursor, width int) string {
	box := t.Box().Background(t.StatusBoxBg)
	if width > 2 {
		box = box.Width(width - 2)
	}
	title := t.Header().Render("Active sessions")

	if len(rows) == 0 {
		return box.Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			t.Dimmed().Render(card.NoActiveSessionsLabel),
		))
	}

	lines := []string{title}
	nameW := width - 12
	for i, r := range rows {
		prefix := "  "
		name := lipgloss.NewStyle().Foreground(t.Text)
		if i == cursor {
			prefix = "> "
			name = name.Bold(true)
		}
		if nameW > 0 {
			name = name.Width(nameW).MaxWidth(nameW)
		}
		dot := lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("●")
		stop := card.StopControl(r.Session)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center,
			prefix, dot, " ", name.Render(r.Session.Name), " ",
			controls.Button(r.Stop, stop.Label, 0),
		))
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
