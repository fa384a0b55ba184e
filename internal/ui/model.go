// Package ui renders a task board in the terminal.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todo-board/internal/board"
)

type focus int

// Entry pane and list focus, in tab order.
const (
	focusTitle focus = iota
	focusDescription
	focusDeadline
	focusAdd
	focusList
	focusCount
)

// Edit modal focus, in tab order.
const (
	editTitle focus = iota
	editDescription
	editDeadline
	editSave
	editCancel
	editCount
)

type pickerTarget int

const (
	pickEntry pickerTarget = iota
	pickEdit
)

type loadedMsg struct{ err error }
type addedMsg struct{ err error }
type editedMsg struct{ err error }
type deletedMsg struct{ err error }
type toggledMsg struct{ err error }

// Model is the bubbletea model of the board.
type Model struct {
	ctx   context.Context
	board *board.Board
	now   func() time.Time

	title       textinput.Model
	description textarea.Model
	editTitle   textinput.Model
	editDesc    textarea.Model

	picker    DatePicker
	pickerFor pickerTarget

	focus     focus
	editFocus focus
	cursor    int

	width    int
	height   int
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New builds a model over b. Bridge calls run with ctx.
func New(ctx context.Context, b *board.Board, opts ...Option) *Model {
	m := &Model{
		ctx:         ctx,
		board:       b,
		now:         time.Now,
		title:       newTitleInput(),
		description: newDescriptionArea(),
		editTitle:   newTitleInput(),
		editDesc:    newDescriptionArea(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.title.Focus()
	return m
}

func newTitleInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 200
	ti.Width = 32
	ti.Prompt = ""
	return ti
}

func newDescriptionArea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Details (optional)"
	ta.ShowLineNumbers = false
	ta.SetWidth(34)
	ta.SetHeight(4)
	ta.Prompt = ""
	return ta
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg, deletedMsg, toggledMsg:
		m.clampCursor()
		return m, nil

	case addedMsg:
		if msg.err == nil {
			m.title.SetValue("")
			m.description.SetValue("")
			return m, m.setFocus(focusTitle)
		}
		return m, nil

	case editedMsg:
		if msg.err == nil && !m.board.Snapshot().ModalOpen {
			return m, m.closeModal()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.picker.IsOpen() {
			return m, m.updatePicker(msg)
		}
		if m.board.Snapshot().ModalOpen {
			return m, m.updateModal(msg)
		}
		return m, m.updateMain(msg)
	}

	return m, m.forward(msg)
}

func (m *Model) updateMain(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		return m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab":
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus == focusList {
		return m.updateList(msg)
	}

	switch msg.String() {
	case "ctrl+s":
		return m.add()
	case "enter":
		switch m.focus {
		case focusTitle:
			return m.setFocus(focusDescription)
		case focusDeadline:
			m.openPicker(pickEntry, m.board.Snapshot().Entry.Deadline)
			return nil
		case focusAdd:
			return m.add()
		}
	case "backspace", "delete":
		if m.focus == focusDeadline {
			m.board.SetEntryDeadline("")
			return nil
		}
	}
	return m.forward(msg)
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	snap := m.board.Snapshot()
	var selected string
	if m.cursor < len(snap.Tasks) {
		selected = snap.Tasks[m.cursor].ID
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(snap.Tasks)-1 {
			m.cursor++
		}
	case "s":
		m.board.SetSort(snap.Sort.Next())
	case "r":
		return m.load()
	case "e", "enter":
		if selected != "" && m.board.OpenEdit(selected) == nil {
			return m.openModal()
		}
	case "d":
		if selected != "" {
			return m.remove(selected)
		}
	case " ":
		if selected != "" {
			return m.toggle(selected)
		}
	}
	return nil
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.board.CancelEdit()
		return m.closeModal()
	case "ctrl+s":
		return m.submitEdit()
	case "tab":
		return m.setEditFocus((m.editFocus + 1) % editCount)
	case "shift+tab":
		return m.setEditFocus((m.editFocus + editCount - 1) % editCount)
	case "enter":
		switch m.editFocus {
		case editTitle:
			return m.setEditFocus(editDescription)
		case editDeadline:
			m.openPicker(pickEdit, m.board.Snapshot().Edit.Deadline)
			return nil
		case editSave:
			return m.submitEdit()
		case editCancel:
			m.board.CancelEdit()
			return m.closeModal()
		}
	case "backspace", "delete":
		if m.editFocus == editDeadline {
			m.board.SetEditDeadline("")
			return nil
		}
	}
	return m.forward(msg)
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.picker.Move(-1)
	case "right", "l":
		m.picker.Move(1)
	case "up", "k":
		m.picker.Move(-7)
	case "down", "j":
		m.picker.Move(7)
	case "pgup":
		m.picker.MoveMonths(-1)
	case "pgdown":
		m.picker.MoveMonths(1)
	case "t":
		m.picker.Open("", m.now())
	case "enter":
		m.setDeadline(m.picker.Value())
		m.picker.Close()
	case "backspace", "delete":
		m.setDeadline("")
		m.picker.Close()
	case "esc":
		m.picker.Close()
	}
	return nil
}

// forward hands msg to the focused text component and copies its value
// into the board.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.board.Snapshot().ModalOpen {
		switch m.editFocus {
		case editTitle:
			m.editTitle, cmd = m.editTitle.Update(msg)
			m.board.SetEditTitle(m.editTitle.Value())
		case editDescription:
			m.editDesc, cmd = m.editDesc.Update(msg)
			m.board.SetEditDescription(m.editDesc.Value())
		}
		return cmd
	}
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
		m.board.SetEntryTitle(m.title.Value())
	case focusDescription:
		m.description, cmd = m.description.Update(msg)
		m.board.SetEntryDescription(m.description.Value())
	}
	return cmd
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	switch f {
	case focusTitle:
		return m.title.Focus()
	case focusDescription:
		return m.description.Focus()
	}
	return nil
}

func (m *Model) setEditFocus(f focus) tea.Cmd {
	m.editFocus = f
	m.editTitle.Blur()
	m.editDesc.Blur()
	switch f {
	case editTitle:
		return m.editTitle.Focus()
	case editDescription:
		return m.editDesc.Focus()
	}
	return nil
}

func (m *Model) openModal() tea.Cmd {
	snap := m.board.Snapshot()
	m.editTitle.SetValue(snap.Edit.Title)
	m.editDesc.SetValue(snap.Edit.Description)
	m.title.Blur()
	m.description.Blur()
	return m.setEditFocus(editTitle)
}

func (m *Model) closeModal() tea.Cmd {
	m.editTitle.Blur()
	m.editDesc.Blur()
	m.editTitle.SetValue("")
	m.editDesc.SetValue("")
	m.clampCursor()
	return m.setFocus(focusList)
}

func (m *Model) openPicker(target pickerTarget, deadline string) {
	m.pickerFor = target
	m.picker.Open(deadline, m.now())
}

func (m *Model) setDeadline(v string) {
	if m.pickerFor == pickEdit {
		m.board.SetEditDeadline(v)
		return
	}
	m.board.SetEntryDeadline(v)
}

func (m *Model) clampCursor() {
	n := len(m.board.Snapshot().Tasks)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.board.Load(m.ctx)}
	}
}

func (m *Model) add() tea.Cmd {
	if !m.board.Snapshot().CanAdd {
		return nil
	}
	return func() tea.Msg {
		return addedMsg{err: m.board.Add(m.ctx)}
	}
}

func (m *Model) submitEdit() tea.Cmd {
	if !m.board.Snapshot().CanSubmitEdit {
		return nil
	}
	return func() tea.Msg {
		return editedMsg{err: m.board.SubmitEdit(m.ctx)}
	}
}

func (m *Model) remove(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: m.board.Delete(m.ctx, id)}
	}
}

func (m *Model) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		return toggledMsg{err: m.board.ToggleComplete(m.ctx, id)}
	}
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, b *board.Board, opts ...Option) error {
	p := tea.NewProgram(New(ctx, b, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
