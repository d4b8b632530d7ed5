// Package watch implements the live dashboard shown by packlint watch.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the watch dashboard. A single default
// theme today, but keeping every color in one place makes future themes
// trivial.
type Theme struct {
	// Severity and status colors
	Pass    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Running lipgloss.Style

	// UI elements
	Border    lipgloss.Style
	Title     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	}
}
