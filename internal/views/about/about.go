// Package about renders the help overlay: what the card is and which keys
// drive it, as glamour-rendered markdown.
package about

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/duostream/duostream-tui/internal/registry"
	"github.com/duostream/duostream-tui/internal/theme"
)

// Markdown builds the overlay source.
func Markdown(entries []registry.Entry, bindings []key.Binding, version string) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", e.Name, e.Description)
	}
	b.WriteString("## Keys\n\n| Key | Action |\n|---|---|\n")
	for _, kb := range bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	if version != "" {
		fmt.Fprintf(&b, "\n*%s*\n", version)
	}
	return b.String()
}

// View renders the overlay panel. Rendering failures fall back to the raw
// markdown.
func View(t theme.Theme, entries []registry.Entry, bindings []key.Binding, version string, width int) string {
	innerW := width - 6
	if innerW < 20 {
		innerW = 20
	}
	src := Markdown(entries, bindings, version)

	style := "light"
	if t.Name == theme.Dark.Name {
		style = "dark"
	}
	body := src
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(innerW),
	)
	if err == nil {
		if out, err := r.Render(src); err == nil {
			body = strings.TrimSpace(out)
		}
	}

	help := t.Dimmed().Render("esc:close")
	return lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(t.Border).
		Render(lipgloss.JoinVertical(lipgloss.Left, body, "", help))
}
