package tui

import "github.com/charmbracelet/lipgloss"

// Shared TUI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 0, 1, 2)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 0, 0, 2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	hashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	uncheckedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	squashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(1, 0, 0, 2)

	classStyles = map[string]lipgloss.Style{
		"likely":   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"possible": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"unlikely": lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		"new":      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
)
