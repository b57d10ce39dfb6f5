// Package theme provides the Lip Gloss color palette and reusable styles
// for the DuoStream TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Button colors.
var (
	ColorWake         = lipgloss.Color("#4287f5")
	ColorWakeActive   = lipgloss.Color("#3269cc")
	ColorDanger       = lipgloss.Color("#f44336")
	ColorDangerActive = lipgloss.Color("#d32f2f")
	ColorStart        = lipgloss.Color("#4caf50")
	ColorStartActive  = lipgloss.Color("#3d8b40")
	ColorSession      = lipgloss.Color("#673ab7")
	ColorSessionPress = lipgloss.Color("#5e34a0")
	ColorButtonText   = lipgloss.Color("#ffffff")
)

// Status colors.
var (
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorOffline = lipgloss.Color("#dc2626")
)

// ButtonKind names the semantic role of a control. Two controls with the
// same kind share a color scheme.
type ButtonKind int

const (
	KindWake ButtonKind = iota
	KindShutdown
	KindStartService
	KindStopService
	KindSession
	KindStopSession
)

// String returns a short label used in logs.
func (k ButtonKind) String() string {
	switch k {
	case KindWake:
		return "wake"
	case KindShutdown:
		return "shutdown"
	case KindStartService:
		return "start_service"
	case KindStopService:
		return "stop_service"
	case KindSession:
		return "session"
	case KindStopSession:
		return "stop_session"
	default:
		return "unknown"
	}
}

// Scheme is the color set of one control: at rest, while pressed and while
// disabled.
type Scheme struct {
	Normal   lipgloss.Color
	Active   lipgloss.Color
	Disabled lipgloss.Color
}

// Theme is a light or dark palette for the card chrome.
type Theme struct {
	Name        string
	CardBg      lipgloss.Color // empty in light mode: terminal default
	Text        lipgloss.Color
	Subtitle    lipgloss.Color
	StatusBoxBg lipgloss.Color
	Border      lipgloss.Color
	Disabled    lipgloss.Color
}

// Light is the default palette.
var Light = Theme{
	Name:        "light",
	Text:        lipgloss.Color("#333333"),
	Subtitle:    lipgloss.Color("#666666"),
	StatusBoxBg: lipgloss.Color("#f5f5f5"),
	Border:      lipgloss.Color("#cccccc"),
	Disabled:    lipgloss.Color("#cccccc"),
}

// Dark is used when the host reports dark mode.
var Dark = Theme{
	Name:        "dark",
	CardBg:      lipgloss.Color("#1c1c1c"),
	Text:        lipgloss.Color("#e1e1e1"),
	Subtitle:    lipgloss.Color("#a0a0a0"),
	StatusBoxBg: lipgloss.Color("#2d2d2d"),
	Border:      lipgloss.Color("#555555"),
	Disabled:    lipgloss.Color("#555555"),
}

// For picks the palette for the given mode.
func For(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Scheme returns the color scheme for a control kind.
func (t Theme) Scheme(k ButtonKind) Scheme {
	s := Scheme{Disabled: t.Disabled}
	switch k {
	case KindWake:
		s.Normal, s.Active = ColorWake, ColorWakeActive
	case KindShutdown, KindStopService, KindStopSession:
		s.Normal, s.Active = ColorDanger, ColorDangerActive
	case KindStartService:
		s.Normal, s.Active = ColorStart, ColorStartActive
	default:
		s.Normal, s.Active = ColorSession, ColorSessionPress
	}
	return s
}

// StatusColor returns the accent for a status word.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "online", "running", "on":
		return ColorHealthy
	case "unknown", "unavailable":
		return ColorWarning
	default:
		return ColorOffline
	}
}

// Header returns the card title style.
func (t Theme) Header() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Text)
}

// Dimmed returns the subtitle style.
func (t Theme) Dimmed() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Subtitle)
}

// Box returns the rounded box style used for status tiles and lists.
func (t Theme) Box() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
}

