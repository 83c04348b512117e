package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("12")
	colorSuccess = lipgloss.Color("10")
	colorWarning = lipgloss.Color("11")
	colorDanger  = lipgloss.Color("9")
	colorDim     = lipgloss.Color("241")

	userStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	statusBusyStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorDanger)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	commandPreviewStyle = lipgloss.NewStyle().
				Foreground(colorDanger).
				Bold(true)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Faint(true)
)
