package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#87CEEB")
	muted  = lipgloss.Color("#808080")
	danger = lipgloss.Color("#FF5F5F")
	good   = lipgloss.Color("#5FD787")

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3A3A3A"))

	deletedStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(muted)

	scopeStyle = lipgloss.NewStyle().
			Foreground(muted)

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(good).
			Padding(0, 1)
)
