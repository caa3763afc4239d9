package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// FormatSignal marks buys and sells with an arrow.
func FormatSignal(signal types.Direction) string {
	switch signal {
	case types.DirectionBuy:
		return "buy ▲"
	case types.DirectionSell:
		return "sell ▼"
	default:
		return string(signal)
	}
}
