package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-board/internal/model"
)

// MemoryBackend keeps tasks in process memory. It backs tests and the
// "memory" driver.
type MemoryBackend struct {
	mu    sync.Mutex
	tasks []model.Task // insertion order
	now   func() time.Time
	newID func() string
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock sets the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		m.now = now
	}
}

// WithIDs sets the id generator.
func WithIDs(newID func() string) MemoryOption {
	return func(m *MemoryBackend) {
		m.newID = newID
	}
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryBackend) List(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Task, 0, len(m.tasks))
	for i := len(m.tasks) - 1; i >= 0; i-- {
		out = append(out, m.tasks[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryBackend) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	task := model.Task{
		ID:          m.newID(),
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		CreatedAt:   m.now(),
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	for _, existing := range m.tasks {
		if existing.ID == task.ID {
			return "", fmt.Errorf("insert task: duplicate id %s: %w", task.ID, ErrInvalid)
		}
	}
	m.tasks = append(m.tasks, task)
	return task.ID, nil
}

func (m *MemoryBackend) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i] = m.tasks[i].Apply(patch)
			return nil
		}
	}
	return fmt.Errorf("merge task %s: %w", id, ErrNotFound)
}

func (m *MemoryBackend) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tasks[:0]
	for _, task := range m.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	m.tasks = kept
	return nil
}

func (m *MemoryBackend) Close(context.Context) error {
	return nil
}
