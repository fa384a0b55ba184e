package board

import (
	"fmt"
	"sort"
	"strings"

	"todo-board/internal/model"
)

// SortOrder is a view-only ordering of the task list.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortDeadline SortOrder = "deadline"
)

var sortOrders = []SortOrder{SortNewest, SortOldest, SortDeadline}

// ParseSort converts user input into a SortOrder.
func ParseSort(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	for _, o := range sortOrders {
		if o == order {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown sort order %q (want newest, oldest or deadline)", s)
}

// Next cycles to the following order.
func (o SortOrder) Next() SortOrder {
	for i, candidate := range sortOrders {
		if candidate == o {
			return sortOrders[(i+1)%len(sortOrders)]
		}
	}
	return SortNewest
}

func (o SortOrder) Label() string {
	switch o {
	case SortOldest:
		return "Oldest first"
	case SortDeadline:
		return "By deadline"
	default:
		return "Newest first"
	}
}

// Sorted returns an ordered copy of tasks. The input is never modified and
// ties keep their original relative order.
func Sorted(tasks []model.Task, order SortOrder) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	var less func(a, b model.Task) bool
	switch order {
	case SortOldest:
		less = func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortDeadline:
		less = func(a, b model.Task) bool { return a.Deadline < b.Deadline }
	default:
		less = func(a, b model.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
