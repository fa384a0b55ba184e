package repository

import (
	"context"
	"fmt"

	"todo-board/internal/model"
)

// TaskRepository bridges local Task values and a remote store. Every call is
// single-shot: no retries, no batching, no transaction across tasks.
type TaskRepository struct {
	backend Backend
}

func NewTaskRepository(backend Backend) *TaskRepository {
	return &TaskRepository{backend: backend}
}

// List fetches every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := r.backend.List(ctx)
	if err != nil {
		return nil, wrap("list", "", err)
	}
	return tasks, nil
}

// Create stores a new task and returns the id assigned by the store. The
// caller only gets the id back, not the stored record.
func (r *TaskRepository) Create(ctx context.Context, input model.TaskInput) (string, error) {
	if model.BlankTitle(input.Title) {
		return "", wrap("create", "", fmt.Errorf("%w: title is required", ErrInvalid))
	}
	if input.Completed == nil {
		input.Completed = model.Ptr(false)
	}
	id, err := r.backend.Insert(ctx, input)
	if err != nil {
		return "", wrap("create", "", err)
	}
	return id, nil
}

// Update merges the non-nil fields of patch into the stored task. The id is
// not checked beforehand; an unknown id fails the way the store fails it.
func (r *TaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	if patch.Title != nil && model.BlankTitle(*patch.Title) {
		return wrap("update", id, fmt.Errorf("%w: title is required", ErrInvalid))
	}
	if patch.IsEmpty() {
		return nil
	}
	return wrap("update", id, r.backend.Merge(ctx, id, patch))
}

// Delete removes the task unconditionally.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return wrap("delete", id, r.backend.Remove(ctx, id))
}

// ToggleComplete sets the completed flag of a task.
func (r *TaskRepository) ToggleComplete(ctx context.Context, id string, completed bool) error {
	return wrap("toggle", id, r.backend.Merge(ctx, id, model.TaskPatch{Completed: &completed}))
}

// Close releases the backend connection.
func (r *TaskRepository) Close(ctx context.Context) error {
	return r.backend.Close(ctx)
}
