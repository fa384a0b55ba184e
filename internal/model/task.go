package model

import (
	"strings"
	"time"
)

// Task represents a single to-do record.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    string    `json:"deadline"`
	CreatedAt   time.Time `json:"createdAt"`
	Completed   bool      `json:"completed"`

	// Provisional is set when CreatedAt was estimated locally right after a
	// create. The value is only replaced by the next full reload.
	Provisional bool `json:"-"`
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Deadline    string
	Completed   *bool
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Deadline    *string
	Completed   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && p.Completed == nil
}

// Apply returns a copy of t with the patched fields replaced.
func (t Task) Apply(p TaskPatch) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// BlankTitle reports whether a title is empty or whitespace-only.
func BlankTitle(title string) bool {
	return strings.TrimSpace(title) == ""
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
