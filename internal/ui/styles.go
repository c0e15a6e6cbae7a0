package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorInfo      = lipgloss.Color("75")  // Blue

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)
)

var severityStyles = map[signal.Severity]lipgloss.Style{
	signal.SeverityCritical:  lipgloss.NewStyle().Foreground(ColorError).Bold(true),
	signal.SeverityUrgent:    lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	signal.SeverityAttention: lipgloss.NewStyle().Foreground(ColorPrimary),
	signal.SeverityInfo:      lipgloss.NewStyle().Foreground(ColorInfo),
}

// SeverityStyle returns the style for a severity.
func SeverityStyle(s signal.Severity) lipgloss.Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return StyleText
}

// SeverityIcon is a one-character marker for a severity.
func SeverityIcon(s signal.Severity) string {
	switch s {
	case signal.SeverityCritical:
		return "!!"
	case signal.SeverityUrgent:
		return "! "
	case signal.SeverityAttention:
		return "* "
	default:
		return "- "
	}
}
