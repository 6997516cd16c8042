package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// Command output styling. Colours degrade gracefully on dumb terminals.
var (
	headerStyle = lipgloss.NewStyle().Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// renderStatus colours a run status for terminal output.
func renderStatus(status domain.RunStatus) string {
	switch status {
	case domain.StatusSuccess:
		return successStyle.Render(string(status))
	case domain.StatusPartial, domain.StatusInProgress:
		return partialStyle.Render(string(status))
	case domain.StatusFailed:
		return errorStyle.Render(string(status))
	default:
		return mutedStyle.Render(string(status))
	}
}
