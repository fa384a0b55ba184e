package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"todo-board/internal/model"
	"todo-board/internal/repository/repotest"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "todos.db"), "todos", nil, opts...)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestStoreContract(t *testing.T) {
	repotest.RunContract(t, func(t *testing.T) repotest.Harness {
		now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
		store := openTestStore(t, WithClock(func() time.Time { return now }))
		return repotest.Harness{
			Backend: store,
			Advance: func() { now = now.Add(time.Second) },
		}
	})
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "todos.db")
	store, err := Open(path, "", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close(context.Background())

	if store.table != "todos" {
		t.Errorf("expected default table todos, got %s", store.table)
	}
	if _, err := store.Insert(context.Background(), model.TaskInput{Title: "x"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestStoreUsesCustomTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "todos.db")
	store, err := Open(dsn, "archive", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close(context.Background())

	if _, err := store.Insert(context.Background(), model.TaskInput{Title: "archived"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !store.db.Migrator().HasTable("archive") {
		t.Errorf("expected table archive to exist")
	}
	var count int64
	if err := store.db.Table("archive").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestEnsureDirForSQLiteSkipsMemory(t *testing.T) {
	for _, dsn := range []string{":memory:", "file::memory:?cache=shared", "todos.db"} {
		if err := ensureDirForSQLite(dsn); err != nil {
			t.Errorf("ensureDirForSQLite(%q) failed: %v", dsn, err)
		}
	}
}
