// Package tui renders the interactive world browser: category counts,
// element lists, a field editor backed by the auto-save session, and a
// relationship picker.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	lightForeground = lipgloss.Color("#1c2733")
	lightPrimary    = lipgloss.Color("#2f5d8a")
	lightAccent     = lipgloss.Color("#7a9e3b")
	lightMuted      = lipgloss.Color("#8a94a0")
	lightBorder     = lipgloss.Color("#d4dae0")

	darkForeground = lipgloss.Color("#e8ecf0")
	darkPrimary    = lipgloss.Color("#8ab4e0")
	darkAccent     = lipgloss.Color("#a3c964")
	darkMuted      = lipgloss.Color("#5c6876")
	darkBorder     = lipgloss.Color("#3a4654")

	colorError   = lipgloss.Color("#d04a3a")
	colorSuccess = lipgloss.Color("#6aa84f")
	colorWarning = lipgloss.Color("#e0a72f")
)

// Theme holds one color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Foreground: lightForeground,
		Primary:    lightPrimary,
		Accent:     lightAccent,
		Muted:      lightMuted,
		Border:     lightBorder,
		IsDark:     false,
	}
}

func DarkTheme() Theme {
	return Theme{
		Foreground: darkForeground,
		Primary:    darkPrimary,
		Accent:     darkAccent,
		Muted:      darkMuted,
		Border:     darkBorder,
		IsDark:     true,
	}
}

// ThemeByName maps a config theme name to a Theme. Unknown or empty names
// get the light theme.
func ThemeByName(name string) Theme {
	if name == "dark" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the rendered components for the active theme.
type Styles struct {
	Theme Theme

	Title     lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
	Body      lipgloss.Style
	Muted     lipgloss.Style
	FieldName lipgloss.Style
	Dirty     lipgloss.Style
	StatusBar lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Overlay   lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border),

		Selected: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		FieldName: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Dirty: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border),

		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(colorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),

		Overlay: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}
