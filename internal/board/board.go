// Package board holds the state of an interactive task board: the cached
// task list, the entry form, the edit modal and the current sort order.
//
// Every operation that talks to the store releases the board lock for the
// duration of the call, so overlapping operations settle independently.
// Failures are logged and returned; the board is left in its
// pre-operation state.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

// ErrUnknownTask is returned when an id is not in the local list.
var ErrUnknownTask = errors.New("task not on board")

// Bridge is the persistence surface the board depends on.
type Bridge interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, input model.TaskInput) (string, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) error
	Delete(ctx context.Context, id string) error
	ToggleComplete(ctx context.Context, id string, completed bool) error
}

// Form is the editable part of a task.
type Form struct {
	Title       string
	Description string
	Deadline    string
}

// Board is safe for concurrent use.
type Board struct {
	bridge Bridge
	log    logrus.FieldLogger
	now    func() time.Time

	mu        sync.Mutex
	tasks     []model.Task
	entry     Form
	edit      Form
	editing   string
	modalOpen bool
	sortBy    SortOrder
	loading   bool
	loaded    bool
}

// Option configures a Board.
type Option func(*Board)

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Board) {
		b.log = log
	}
}

// WithClock overrides the clock used for default deadlines and provisional
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

func WithSort(order SortOrder) Option {
	return func(b *Board) {
		b.sortBy = order
	}
}

// New creates an empty board in the loading state. Call Load to fetch the
// task list; the loading flag clears once that call settles.
func New(bridge Bridge, opts ...Option) *Board {
	b := &Board{
		bridge:  bridge,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		sortBy:  SortNewest,
		tasks:   []model.Task{},
		loading: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the local list with the store's. On failure the list is
// left as it was.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	tasks, err := b.bridge.List(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		b.fail("load", "", err)
		return err
	}
	b.tasks = tasks
	b.loaded = true
	return nil
}

func (b *Board) SetEntryTitle(v string) {
	b.mu.Lock()
	b.entry.Title = v
	b.mu.Unlock()
}

func (b *Board) SetEntryDescription(v string) {
	b.mu.Lock()
	b.entry.Description = v
	b.mu.Unlock()
}

func (b *Board) SetEntryDeadline(v string) {
	b.mu.Lock()
	b.entry.Deadline = v
	b.mu.Unlock()
}

// Add creates a task from the entry form. A blank title makes it a no-op.
// A blank deadline becomes today's date. On success the new task is
// prepended with a provisional creation time and the form is cleared.
func (b *Board) Add(ctx context.Context) error {
	b.mu.Lock()
	form := b.entry
	b.mu.Unlock()

	if model.BlankTitle(form.Title) {
		return nil
	}
	now := b.now()
	if form.Deadline == "" {
		form.Deadline = model.Today(now)
	}

	id, err := b.bridge.Create(ctx, model.TaskInput{
		Title:       form.Title,
		Description: form.Description,
		Deadline:    form.Deadline,
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail("add", "", err)
		return err
	}
	task := model.Task{
		ID:          id,
		Title:       form.Title,
		Description: form.Description,
		Deadline:    form.Deadline,
		CreatedAt:   now,
		Provisional: true,
	}
	b.tasks = append([]model.Task{task}, b.tasks...)
	b.entry = Form{}
	return nil
}

// OpenEdit copies a task into the edit form and shows the modal.
func (b *Board) OpenEdit(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.find(id)
	if !ok {
		return ErrUnknownTask
	}
	b.edit = Form{Title: task.Title, Description: task.Description, Deadline: task.Deadline}
	b.editing = id
	b.modalOpen = true
	return nil
}

func (b *Board) SetEditTitle(v string) {
	b.mu.Lock()
	b.edit.Title = v
	b.mu.Unlock()
}

func (b *Board) SetEditDescription(v string) {
	b.mu.Lock()
	b.edit.Description = v
	b.mu.Unlock()
}

func (b *Board) SetEditDeadline(v string) {
	b.mu.Lock()
	b.edit.Deadline = v
	b.mu.Unlock()
}

// SubmitEdit sends the three editable fields. It does nothing when the
// modal is closed or the edit title is blank. On failure the modal stays
// open with the edited values.
func (b *Board) SubmitEdit(ctx context.Context) error {
	b.mu.Lock()
	if !b.modalOpen || model.BlankTitle(b.edit.Title) {
		b.mu.Unlock()
		return nil
	}
	id, form := b.editing, b.edit
	b.mu.Unlock()

	patch := model.TaskPatch{
		Title:       model.Ptr(form.Title),
		Description: model.Ptr(form.Description),
		Deadline:    model.Ptr(form.Deadline),
	}
	err := b.bridge.Update(ctx, id, patch)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail("edit", id, err)
		return err
	}
	b.patch(id, patch)
	if b.editing == id {
		b.closeModal()
	}
	return nil
}

// CancelEdit closes the modal without touching the store.
func (b *Board) CancelEdit() {
	b.mu.Lock()
	b.closeModal()
	b.mu.Unlock()
}

// Delete removes a task from the store and then from the local list.
func (b *Board) Delete(ctx context.Context, id string) error {
	err := b.bridge.Delete(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail("delete", id, err)
		return err
	}
	kept := b.tasks[:0:0]
	for _, t := range b.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	b.tasks = kept
	return nil
}

// ToggleComplete flips the completed flag of a task.
func (b *Board) ToggleComplete(ctx context.Context, id string) error {
	b.mu.Lock()
	task, ok := b.find(id)
	b.mu.Unlock()
	if !ok {
		return ErrUnknownTask
	}

	completed := !task.Completed
	err := b.bridge.ToggleComplete(ctx, id, completed)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail("toggle", id, err)
		return err
	}
	b.patch(id, model.TaskPatch{Completed: &completed})
	return nil
}

func (b *Board) SetSort(order SortOrder) {
	b.mu.Lock()
	b.sortBy = order
	b.mu.Unlock()
}

// Task returns a copy of the task with the given id.
func (b *Board) Task(id string) (model.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.find(id)
}

// Snapshot is an immutable view of the board.
type Snapshot struct {
	Tasks     []model.Task
	Entry     Form
	Edit      Form
	Editing   string
	ModalOpen bool
	Sort      SortOrder
	Loading   bool
	Loaded    bool

	CanAdd        bool
	CanSubmitEdit bool
}

// Snapshot returns the current state with tasks in display order.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Tasks:         Sorted(b.tasks, b.sortBy),
		Entry:         b.entry,
		Edit:          b.edit,
		Editing:       b.editing,
		ModalOpen:     b.modalOpen,
		Sort:          b.sortBy,
		Loading:       b.loading,
		Loaded:        b.loaded,
		CanAdd:        !model.BlankTitle(b.entry.Title),
		CanSubmitEdit: b.modalOpen && !model.BlankTitle(b.edit.Title),
	}
}

// find must be called with mu held.
func (b *Board) find(id string) (model.Task, bool) {
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// patch must be called with mu held.
func (b *Board) patch(id string, p model.TaskPatch) {
	next := make([]model.Task, len(b.tasks))
	for i, t := range b.tasks {
		if t.ID == id {
			t = t.Apply(p)
		}
		next[i] = t
	}
	b.tasks = next
}

func (b *Board) closeModal() {
	b.modalOpen = false
	b.editing = ""
	b.edit = Form{}
}

func (b *Board) fail(op, id string, err error) {
	fields := logrus.Fields{
		"op":   op,
		"kind": repository.KindOf(err).String(),
	}
	if id != "" {
		fields["id"] = id
	}
	b.log.WithFields(fields).WithError(err).Error("task board operation failed")
}
