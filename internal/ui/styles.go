package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("255"))

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("33")).
				Bold(true)

	disabledButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Background(lipgloss.Color("238")).
				Foreground(lipgloss.Color("244"))

	dateFieldStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedDateFieldStyle = dateFieldStyle.
				BorderForeground(lipgloss.Color("86"))

	taskTitleStyle = lipgloss.NewStyle().Bold(true)

	completedTitleStyle = lipgloss.NewStyle().
				Strikethrough(true).
				Foreground(lipgloss.Color("242"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(1, 2)

	pickerDayStyle = lipgloss.NewStyle().Width(3).Align(lipgloss.Right)

	pickerCursorStyle = pickerDayStyle.
				Background(lipgloss.Color("33")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	pickerTodayStyle = pickerDayStyle.
				Foreground(lipgloss.Color("214"))
)
