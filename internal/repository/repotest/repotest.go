// Package repotest holds the behavioural contract every repository.Backend
// must satisfy.
package repotest

import (
	"context"
	"errors"
	"testing"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

// Harness is a backend under test plus a hook that moves its clock forward
// so consecutive inserts get distinct creation times.
type Harness struct {
	Backend repository.Backend
	Advance func()
}

// RunContract runs the backend contract against fresh harnesses.
func RunContract(t *testing.T, newHarness func(t *testing.T) Harness) {
	t.Helper()

	t.Run("insert and list newest first", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		first := insert(t, h, model.TaskInput{Title: "first", Description: "one", Deadline: "2024-01-10"})
		second := insert(t, h, model.TaskInput{Title: "second", Deadline: "2023-12-25"})
		third := insert(t, h, model.TaskInput{Title: "third", Description: "three", Deadline: "2024-06-01", Completed: model.Ptr(true)})

		tasks, err := h.Backend.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(tasks))
		}
		wantOrder := []string{third, second, first}
		for i, id := range wantOrder {
			if tasks[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, tasks[i].ID)
			}
		}
		if tasks[2].Title != "first" || tasks[2].Description != "one" || tasks[2].Deadline != "2024-01-10" {
			t.Errorf("first task fields not preserved: %+v", tasks[2])
		}
		if tasks[2].Completed {
			t.Errorf("expected completed to default to false")
		}
		if !tasks[0].Completed {
			t.Errorf("expected explicit completed=true to be stored")
		}
		for _, task := range tasks {
			if task.CreatedAt.IsZero() {
				t.Errorf("task %s has no creation time", task.ID)
			}
		}
		if !tasks[0].CreatedAt.After(tasks[2].CreatedAt) {
			t.Errorf("expected newest creation time first, got %v then %v", tasks[0].CreatedAt, tasks[2].CreatedAt)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		h := newHarness(t)
		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			id := insert(t, h, model.TaskInput{Title: "same"})
			if id == "" {
				t.Fatal("expected a non-empty id")
			}
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	})

	t.Run("merge replaces only patched fields", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		id := insert(t, h, model.TaskInput{Title: "Old title", Description: "keep me", Deadline: "2024-03-05"})
		before := find(t, h, id)

		if err := h.Backend.Merge(ctx, id, model.TaskPatch{Title: model.Ptr("New title")}); err != nil {
			t.Fatalf("Merge failed: %v", err)
		}

		got := find(t, h, id)
		if got.Title != "New title" {
			t.Errorf("expected New title, got %q", got.Title)
		}
		if got.Description != "keep me" || got.Deadline != "2024-03-05" || got.Completed {
			t.Errorf("untouched fields changed: %+v", got)
		}
		if !got.CreatedAt.Equal(before.CreatedAt) {
			t.Errorf("creation time changed from %v to %v", before.CreatedAt, got.CreatedAt)
		}

		if err := h.Backend.Merge(ctx, id, model.TaskPatch{Description: model.Ptr(""), Completed: model.Ptr(true)}); err != nil {
			t.Fatalf("Merge failed: %v", err)
		}
		got = find(t, h, id)
		if got.Description != "" || !got.Completed || got.Title != "New title" {
			t.Errorf("unexpected task after second merge: %+v", got)
		}
	})

	t.Run("merge unknown id is not found", func(t *testing.T) {
		h := newHarness(t)
		err := h.Backend.Merge(context.Background(), missingID, model.TaskPatch{Title: model.Ptr("x")})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		tasks, err := h.Backend.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("merge on unknown id created %d tasks", len(tasks))
		}
	})

	t.Run("remove deletes and tolerates unknown ids", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		keep := insert(t, h, model.TaskInput{Title: "keep", Description: "intact"})
		drop := insert(t, h, model.TaskInput{Title: "drop"})

		if err := h.Backend.Remove(ctx, drop); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if err := h.Backend.Remove(ctx, missingID); err != nil {
			t.Fatalf("Remove of unknown id failed: %v", err)
		}
		if err := h.Backend.Remove(ctx, drop); err != nil {
			t.Fatalf("second Remove failed: %v", err)
		}

		tasks, err := h.Backend.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != keep {
			t.Fatalf("expected only %s to remain, got %+v", keep, tasks)
		}
		if tasks[0].Title != "keep" || tasks[0].Description != "intact" {
			t.Errorf("remaining task corrupted: %+v", tasks[0])
		}
	})
}

// missingID is shaped like the ids the stores generate but never issued.
const missingID = "00000000-0000-0000-0000-000000000000"

func insert(t *testing.T, h Harness, input model.TaskInput) string {
	t.Helper()
	if h.Advance != nil {
		h.Advance()
	}
	id, err := h.Backend.Insert(context.Background(), input)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

func find(t *testing.T, h Harness, id string) model.Task {
	t.Helper()
	tasks, err := h.Backend.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not found", id)
	return model.Task{}
}
