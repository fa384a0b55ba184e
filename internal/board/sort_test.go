package board

import (
	"testing"
	"time"

	"todo-board/internal/model"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"newest", SortNewest, false},
		{" Oldest ", SortOldest, false},
		{"DEADLINE", SortDeadline, false},
		{"priority", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortOrderNext(t *testing.T) {
	if SortNewest.Next() != SortOldest || SortOldest.Next() != SortDeadline || SortDeadline.Next() != SortNewest {
		t.Errorf("unexpected cycle")
	}
	if SortOrder("bogus").Next() != SortNewest {
		t.Errorf("expected unknown order to reset to newest")
	}
}

func TestSortedIsIdempotentAndDoesNotMutate(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "1", Deadline: "2024-05-01", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "2", Deadline: "2024-01-01", CreatedAt: base},
		{ID: "3", Deadline: "2024-05-01", CreatedAt: base.Add(time.Hour)},
		{ID: "4", Deadline: "", CreatedAt: base.Add(3 * time.Hour)},
	}

	once := Sorted(tasks, SortNewest)
	twice := Sorted(once, SortNewest)
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("sorting newest twice changed order: %v vs %v", once, twice)
		}
	}
	if tasks[0].ID != "1" || tasks[3].ID != "4" {
		t.Errorf("input was mutated: %v", tasks)
	}

	byDeadline := Sorted(tasks, SortDeadline)
	for i := 1; i < len(byDeadline); i++ {
		if byDeadline[i-1].Deadline > byDeadline[i].Deadline {
			t.Fatalf("deadline order not non-decreasing: %v", byDeadline)
		}
	}
	// Ties keep list order.
	if byDeadline[2].ID != "1" || byDeadline[3].ID != "3" {
		t.Errorf("expected stable order for equal deadlines, got %v", byDeadline)
	}

	oldest := Sorted(tasks, SortOldest)
	if oldest[0].ID != "2" || oldest[3].ID != "4" {
		t.Errorf("unexpected oldest order: %v", oldest)
	}
}
