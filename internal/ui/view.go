package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo-board/internal/board"
	"todo-board/internal/model"
)

const emptyListText = "No tasks yet. Add one on the left."

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.board.Snapshot()

	if m.picker.IsOpen() {
		return m.place(modalStyle.Render(m.picker.View()))
	}
	if snap.ModalOpen {
		return m.place(m.modalView(snap))
	}

	left := m.entryView(snap)
	right := m.listView(snap)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Todo board"),
		body,
		helpStyle.Render(m.helpText()),
	)
}

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) entryView(snap board.Snapshot) string {
	var b strings.Builder
	b.WriteString(label("Title", m.focus == focusTitle))
	b.WriteString(requiredStyle.Render(" *"))
	b.WriteString("\n")
	b.WriteString(m.title.View())
	b.WriteString("\n\n")
	b.WriteString(label("Description", m.focus == focusDescription))
	b.WriteString("\n")
	b.WriteString(m.description.View())
	b.WriteString("\n\n")
	b.WriteString(label("Deadline", m.focus == focusDeadline))
	b.WriteString("\n")
	b.WriteString(dateField(snap.Entry.Deadline, m.focus == focusDeadline))
	b.WriteString("\n\n")
	b.WriteString(button("Add", m.focus == focusAdd, snap.CanAdd))

	style := paneStyle
	if m.focus != focusList {
		style = focusedPaneStyle
	}
	return style.Width(38).Render(b.String())
}

func (m *Model) listView(snap board.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Sort: %s", snap.Sort.Label()))
	b.WriteString(dimStyle.Render("  (s to change)"))
	b.WriteString("\n\n")

	switch {
	case snap.Loading:
		b.WriteString(dimStyle.Render("Loading..."))
	case len(snap.Tasks) == 0:
		b.WriteString(dimStyle.Render(emptyListText))
	default:
		for i, task := range snap.Tasks {
			b.WriteString(m.taskRow(task, i == m.cursor && m.focus == focusList))
			if i < len(snap.Tasks)-1 {
				b.WriteString("\n\n")
			}
		}
	}

	style := paneStyle
	if m.focus == focusList {
		style = focusedPaneStyle
	}
	width := 48
	if m.width > 0 {
		if w := m.width - 38 - 5; w > width {
			width = w
		}
	}
	return style.Width(width).Render(b.String())
}

func (m *Model) taskRow(task model.Task, selected bool) string {
	check := "[ ]"
	titleStyle := taskTitleStyle
	if task.Completed {
		check = "[x]"
		titleStyle = completedTitleStyle
	}
	marker := "  "
	if selected {
		marker = selectedRowStyle.Render("> ")
	}

	lines := []string{marker + check + " " + titleStyle.Render(task.Title)}
	if task.Description != "" {
		lines = append(lines, "      "+task.Description)
	}
	lines = append(lines, "      "+dimStyle.Render("Deadline: "+task.Deadline))
	if selected {
		lines = append(lines, "      "+helpStyle.Render("e edit · d delete · space done"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) modalView(snap board.Snapshot) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Edit task"))
	b.WriteString("\n\n")
	b.WriteString(label("Title", m.editFocus == editTitle))
	b.WriteString(requiredStyle.Render(" *"))
	b.WriteString("\n")
	b.WriteString(m.editTitle.View())
	b.WriteString("\n\n")
	b.WriteString(label("Description", m.editFocus == editDescription))
	b.WriteString("\n")
	b.WriteString(m.editDesc.View())
	b.WriteString("\n\n")
	b.WriteString(label("Deadline", m.editFocus == editDeadline))
	b.WriteString("\n")
	b.WriteString(dateField(snap.Edit.Deadline, m.editFocus == editDeadline))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		button("Save", m.editFocus == editSave, snap.CanSubmitEdit),
		" ",
		button("Cancel", m.editFocus == editCancel, true),
	))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("ctrl+s save · esc cancel · tab next field"))
	return modalStyle.Render(b.String())
}

func (m *Model) helpText() string {
	if m.focus == focusList {
		return "↑/↓ select · e edit · d delete · space done · s sort · r reload · tab form · q quit"
	}
	return "tab next field · enter on deadline opens calendar · ctrl+s add · ctrl+c quit"
}

func label(text string, focused bool) string {
	if focused {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func button(text string, focused, enabled bool) string {
	switch {
	case !enabled:
		return disabledButtonStyle.Render(text)
	case focused:
		return focusedButtonStyle.Render(text)
	default:
		return buttonStyle.Render(text)
	}
}

func dateField(deadline string, focused bool) string {
	style := dateFieldStyle
	if focused {
		style = focusedDateFieldStyle
	}
	return style.Render(model.FormatDeadline(deadline))
}
