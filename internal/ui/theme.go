package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/karaokepi/internal/logtail"
)

// Theme defines the colors of the log viewer.
type Theme struct {
	Name string

	Surface string
	Border  string
	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Frame   lipgloss.Style
	Title   lipgloss.Style
	Status  lipgloss.Style
	Marker  lipgloss.Style
	Plain   lipgloss.Style
	Debug   lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Marker: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		Plain: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),
		Debug: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
	}
}

// ForSeverity picks the style for a classified log line.
func (s Styles) ForSeverity(sev logtail.Severity) lipgloss.Style {
	switch sev {
	case logtail.Debug:
		return s.Debug
	case logtail.Info:
		return s.Info
	case logtail.Warn:
		return s.Warning
	case logtail.Error:
		return s.Danger
	default:
		return s.Plain
	}
}

// DefaultTheme is a dark palette readable on the Pi's default terminal.
func DefaultTheme() Theme {
	return Theme{
		Name:    "Night",
		Surface: "#1a1b26",
		Border:  "#3b4261",
		Text:    "#c0caf5",
		Muted:   "#565f89",
		Accent:  "#7aa2f7",
		Success: "#9ece6a",
		Warning: "#e0af68",
		Danger:  "#f7768e",
	}
}
