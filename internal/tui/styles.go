package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor = lipgloss.Color("#8AB4F8")
	accentColor  = lipgloss.Color("#A8C9A4")
	ownColor     = lipgloss.Color("#F0DEB4")
	mutedColor   = lipgloss.Color("#9AA0A6")
	fgColor      = lipgloss.Color("#F5F3ED")
	errorColor   = lipgloss.Color("#E07B7B")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	roomStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Padding(0, 1)

	selectedRoomStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true).
				Padding(0, 1)

	avatarStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	senderStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	ownBubbleStyle = lipgloss.NewStyle().
			Foreground(ownColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ownColor).
			Padding(0, 1)

	otherBubbleStyle = lipgloss.NewStyle().
				Foreground(fgColor).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(mutedColor).
				Padding(0, 1)

	timeStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)
