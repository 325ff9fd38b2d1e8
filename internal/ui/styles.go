// Package ui renders scans and results for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#7D56F4")
	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(12)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	ProgressFullStyle  = lipgloss.NewStyle().Foreground(Primary)
	ProgressEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B3B4F"))

	SuccessStyle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
)
