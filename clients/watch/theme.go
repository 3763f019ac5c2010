// Package watch provides a live terminal dashboard for the reflex gateway.
package watch

import "github.com/charmbracelet/lipgloss"

// Adaptive colors (light/dark terminal detection).
var (
	ColorActive   = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"}
	ColorEnabled  = lipgloss.AdaptiveColor{Light: "#0070F3", Dark: "#79C0FF"}
	ColorPaused   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorError    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF6B6B"}
	ColorMuted    = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorStatusBg = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
	ColorStatusFg = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}
)

// Component styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	ActiveStyle = lipgloss.NewStyle().
			Foreground(ColorActive).
			Bold(true)

	EnabledStyle = lipgloss.NewStyle().
			Foreground(ColorEnabled)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorPaused)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorStatusBg).
			Foreground(ColorStatusFg).
			Padding(0, 1)
)
