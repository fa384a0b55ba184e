package repository

import (
	"context"

	"todo-board/internal/model"
)

// Backend is the set of store operations the bridge consumes. Every
// implementation must behave the same way:
//   - List returns all tasks ordered by CreatedAt descending.
//   - Insert assigns the id and CreatedAt; Completed defaults to false.
//   - Merge replaces only the non-nil patch fields and returns ErrNotFound
//     for an unknown id.
//   - Remove deletes unconditionally; an unknown id is not an error.
type Backend interface {
	List(ctx context.Context) ([]model.Task, error)
	Insert(ctx context.Context, input model.TaskInput) (string, error)
	Merge(ctx context.Context, id string, patch model.TaskPatch) error
	Remove(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// DefaultCollection is the collection, table or key prefix holding tasks.
const DefaultCollection = "todos"
