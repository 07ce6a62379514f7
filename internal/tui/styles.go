package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorWarning = lipgloss.Color("#FFB454")
	ColorDanger  = lipgloss.Color("#FF5F87")
	ColorMuted   = lipgloss.Color("#626262")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(ColorPrimary).
			Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ProvisionalStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
