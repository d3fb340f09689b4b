package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1B5E20")).
			Padding(0, 1).
			Bold(true)

	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	turnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	cardStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
