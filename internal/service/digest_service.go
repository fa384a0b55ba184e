package service

import (
	"context"
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"todo-board/internal/model"
)

// DueSoonDays is how close a deadline must be to count as due soon.
const DueSoonDays = 2

// Status classifies an open task by its deadline.
type Status int

const (
	StatusOpen Status = iota
	StatusDueSoon
	StatusOverdue
)

// TaskLister is the read side of the task repository.
type TaskLister interface {
	List(ctx context.Context) ([]model.Task, error)
}

// DigestEntry is one open task in a digest.
type DigestEntry struct {
	Task     model.Task
	Status   Status
	DaysLeft int
	Dated    bool
}

// Digest summarises the open tasks on a given day.
type Digest struct {
	Date    time.Time
	Entries []DigestEntry
}

// DigestService builds deadline digests.
type DigestService struct {
	tasks TaskLister
}

func NewDigestService(tasks TaskLister) *DigestService {
	return &DigestService{tasks: tasks}
}

// Summary lists the store, drops completed tasks and orders the rest by
// deadline. Tasks without a valid deadline come last.
func (s *DigestService) Summary(ctx context.Context, now time.Time) (Digest, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("build digest: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	entries := make([]DigestEntry, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		entries = append(entries, classify(task, today))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Dated != b.Dated {
			return a.Dated
		}
		return a.Task.Deadline < b.Task.Deadline
	})
	return Digest{Date: today, Entries: entries}, nil
}

func classify(task model.Task, today time.Time) DigestEntry {
	entry := DigestEntry{Task: task, Status: StatusOpen}
	d, err := model.ParseDeadline(task.Deadline, today.Location())
	if err != nil {
		return entry
	}
	entry.Dated = true
	entry.DaysLeft = int(math.Round(d.Sub(today).Hours() / 24))
	switch {
	case entry.DaysLeft < 0:
		entry.Status = StatusOverdue
	case entry.DaysLeft <= DueSoonDays:
		entry.Status = StatusDueSoon
	}
	return entry
}

// Counts returns the number of overdue, due soon and other open tasks.
func (d Digest) Counts() (overdue, dueSoon, open int) {
	for _, e := range d.Entries {
		switch e.Status {
		case StatusOverdue:
			overdue++
		case StatusDueSoon:
			dueSoon++
		default:
			open++
		}
	}
	return overdue, dueSoon, open
}

// HTML renders the digest for Telegram.
func (d Digest) HTML() string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Deadline digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", model.FormatDeadline(d.Date.Format(model.DateLayout))))

	if len(d.Entries) == 0 {
		builder.WriteString("— no open tasks\n")
		return strings.TrimSpace(builder.String())
	}
	for _, e := range d.Entries {
		builder.WriteString(fmt.Sprintf("%s %s", e.icon(), html.EscapeString(strings.TrimSpace(e.Task.Title))))
		if e.Dated {
			builder.WriteString(fmt.Sprintf("\n   ⏰ %s · %s", model.FormatDeadline(e.Task.Deadline), e.remaining()))
		}
		if e.Task.Description != "" {
			builder.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(e.Task.Description))))
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String())
}

// Text renders the digest as plain text.
func (d Digest) Text() string {
	var builder strings.Builder
	overdue, soon, open := d.Counts()
	builder.WriteString(fmt.Sprintf("Deadline digest for %s: %d overdue, %d due soon, %d open\n",
		d.Date.Format(model.DateLayout), overdue, soon, open))
	for _, e := range d.Entries {
		deadline := "no deadline"
		if e.Dated {
			deadline = e.Task.Deadline + ", " + e.remaining()
		}
		builder.WriteString(fmt.Sprintf("  %-8s %s (%s)\n", e.label(), strings.TrimSpace(e.Task.Title), deadline))
	}
	return builder.String()
}

func (e DigestEntry) icon() string {
	switch e.Status {
	case StatusOverdue:
		return "⚠️"
	case StatusDueSoon:
		return "⏳"
	default:
		return "🟢"
	}
}

func (e DigestEntry) label() string {
	switch e.Status {
	case StatusOverdue:
		return "overdue"
	case StatusDueSoon:
		return "soon"
	default:
		return "open"
	}
}

func (e DigestEntry) remaining() string {
	switch {
	case e.DaysLeft < -1:
		return fmt.Sprintf("%d days overdue", -e.DaysLeft)
	case e.DaysLeft == -1:
		return "1 day overdue"
	case e.DaysLeft == 0:
		return "due today"
	case e.DaysLeft == 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("%d days left", e.DaysLeft)
	}
}
