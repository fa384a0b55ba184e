package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

var errOffline = errors.New("offline")

// flakyBridge fails selected operations and otherwise delegates.
type flakyBridge struct {
	Bridge
	failList, failCreate, failUpdate, failDelete, failToggle bool
	creates                                                  int
}

func (f *flakyBridge) List(ctx context.Context) ([]model.Task, error) {
	if f.failList {
		return nil, &repository.Error{Op: "list", Kind: repository.KindUnavailable, Err: errOffline}
	}
	return f.Bridge.List(ctx)
}

func (f *flakyBridge) Create(ctx context.Context, input model.TaskInput) (string, error) {
	f.creates++
	if f.failCreate {
		return "", &repository.Error{Op: "create", Kind: repository.KindUnavailable, Err: errOffline}
	}
	return f.Bridge.Create(ctx, input)
}

func (f *flakyBridge) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	if f.failUpdate {
		return &repository.Error{Op: "update", ID: id, Kind: repository.KindNotFound, Err: errOffline}
	}
	return f.Bridge.Update(ctx, id, patch)
}

func (f *flakyBridge) Delete(ctx context.Context, id string) error {
	if f.failDelete {
		return &repository.Error{Op: "delete", ID: id, Kind: repository.KindPermission, Err: errOffline}
	}
	return f.Bridge.Delete(ctx, id)
}

func (f *flakyBridge) ToggleComplete(ctx context.Context, id string, completed bool) error {
	if f.failToggle {
		return errOffline
	}
	return f.Bridge.ToggleComplete(ctx, id, completed)
}

type fixture struct {
	board  *Board
	bridge *flakyBridge
	hook   *test.Hook
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)}
	clock := func() time.Time { return f.now }

	backend := repository.NewMemoryBackend(repository.WithClock(func() time.Time {
		f.now = f.now.Add(time.Minute)
		return f.now
	}))
	f.bridge = &flakyBridge{Bridge: repository.NewTaskRepository(backend)}

	logger, hook := test.NewNullLogger()
	f.hook = hook
	f.board = New(f.bridge, WithLogger(logger), WithClock(clock))
	return f
}

func (f *fixture) add(t *testing.T, title, description, deadline string) model.Task {
	t.Helper()
	f.board.SetEntryTitle(title)
	f.board.SetEntryDescription(description)
	f.board.SetEntryDeadline(deadline)
	if err := f.board.Add(context.Background()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return f.board.Snapshot().Tasks[0]
}

func TestAddDefaultsDeadlineToToday(t *testing.T) {
	f := newFixture(t)

	task := f.add(t, "Buy milk", "2%", "")

	if task.Deadline != "2024-03-05" {
		t.Errorf("expected deadline 2024-03-05, got %s", task.Deadline)
	}
	if task.Title != "Buy milk" || task.Description != "2%" {
		t.Errorf("unexpected task: %+v", task)
	}
	if !task.Provisional {
		t.Errorf("expected a provisional timestamp after add")
	}
	snap := f.board.Snapshot()
	if snap.Entry != (Form{}) {
		t.Errorf("expected entry form to be cleared, got %+v", snap.Entry)
	}

	stored, err := f.bridge.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != task.ID || stored[0].Deadline != "2024-03-05" {
		t.Errorf("store does not match board: %+v", stored)
	}
}

func TestAddBlankTitleIsNoop(t *testing.T) {
	f := newFixture(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		f.board.SetEntryTitle(title)
		if f.board.Snapshot().CanAdd {
			t.Errorf("expected CanAdd=false for %q", title)
		}
		if err := f.board.Add(context.Background()); err != nil {
			t.Errorf("expected nil error for %q, got %v", title, err)
		}
	}
	if f.bridge.creates != 0 {
		t.Errorf("expected no create calls, got %d", f.bridge.creates)
	}
	if n := len(f.board.Snapshot().Tasks); n != 0 {
		t.Errorf("expected empty list, got %d tasks", n)
	}
}

func TestAddFailureKeepsEntryForm(t *testing.T) {
	f := newFixture(t)
	f.bridge.failCreate = true

	f.board.SetEntryTitle("Pay rent")
	f.board.SetEntryDescription("before Friday")
	err := f.board.Add(context.Background())
	if repository.KindOf(err) != repository.KindUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	snap := f.board.Snapshot()
	if snap.Entry.Title != "Pay rent" || snap.Entry.Description != "before Friday" {
		t.Errorf("expected entry form to be kept, got %+v", snap.Entry)
	}
	if len(snap.Tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(snap.Tasks))
	}

	entry := f.hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log entry, got %+v", entry)
	}
	if entry.Data["op"] != "add" || entry.Data["kind"] != "unavailable" {
		t.Errorf("unexpected log fields: %v", entry.Data)
	}
}

func TestLoadReplacesProvisionalTasks(t *testing.T) {
	f := newFixture(t)
	f.add(t, "first", "", "2024-03-10")

	if err := f.board.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap := f.board.Snapshot()
	if !snap.Loaded || snap.Loading {
		t.Errorf("expected loaded state, got loaded=%v loading=%v", snap.Loaded, snap.Loading)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].Provisional {
		t.Errorf("expected store-backed task after reload, got %+v", snap.Tasks)
	}
}

func TestLoadFailureLeavesListEmpty(t *testing.T) {
	f := newFixture(t)
	f.bridge.failList = true

	if err := f.board.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	snap := f.board.Snapshot()
	if snap.Loading || snap.Loaded || len(snap.Tasks) != 0 {
		t.Errorf("unexpected state after failed load: %+v", snap)
	}
	if len(f.hook.Entries) != 1 {
		t.Errorf("expected one log entry, got %d", len(f.hook.Entries))
	}
}

func TestEditKeepsUntouchedFields(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "Old title", "keep me", "2024-03-07")

	if err := f.board.OpenEdit(task.ID); err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	snap := f.board.Snapshot()
	if !snap.ModalOpen || snap.Editing != task.ID {
		t.Fatalf("expected modal open for %s, got %+v", task.ID, snap)
	}
	if snap.Edit != (Form{Title: "Old title", Description: "keep me", Deadline: "2024-03-07"}) {
		t.Errorf("expected task copied into edit form, got %+v", snap.Edit)
	}

	f.board.SetEditTitle("New title")
	if err := f.board.SubmitEdit(context.Background()); err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}

	snap = f.board.Snapshot()
	if snap.ModalOpen || snap.Editing != "" {
		t.Errorf("expected modal closed, got %+v", snap)
	}
	got := snap.Tasks[0]
	if got.Title != "New title" || got.Description != "keep me" || got.Deadline != "2024-03-07" {
		t.Errorf("unexpected task after edit: %+v", got)
	}

	stored, _ := f.bridge.List(context.Background())
	if stored[0].Title != "New title" || stored[0].Description != "keep me" {
		t.Errorf("store not updated: %+v", stored[0])
	}
}

func TestEditBlankTitleDisabled(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "title", "", "2024-03-07")

	f.board.OpenEdit(task.ID)
	f.board.SetEditTitle("  ")
	if f.board.Snapshot().CanSubmitEdit {
		t.Errorf("expected CanSubmitEdit=false")
	}
	if err := f.board.SubmitEdit(context.Background()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	snap := f.board.Snapshot()
	if !snap.ModalOpen || snap.Tasks[0].Title != "title" {
		t.Errorf("expected modal to stay open and task unchanged, got %+v", snap)
	}
}

func TestEditFailureKeepsModal(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "title", "", "2024-03-07")
	f.bridge.failUpdate = true

	f.board.OpenEdit(task.ID)
	f.board.SetEditDescription("edited")
	if err := f.board.SubmitEdit(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	snap := f.board.Snapshot()
	if !snap.ModalOpen || snap.Edit.Description != "edited" {
		t.Errorf("expected modal open with edits, got %+v", snap)
	}
	if snap.Tasks[0].Description != "" {
		t.Errorf("expected local task unchanged, got %+v", snap.Tasks[0])
	}
	if f.hook.LastEntry().Data["id"] != task.ID {
		t.Errorf("expected id in log fields, got %v", f.hook.LastEntry().Data)
	}
}

func TestCancelEditAndClosedSubmit(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "title", "", "2024-03-07")

	f.board.OpenEdit(task.ID)
	f.board.SetEditTitle("changed")
	f.board.CancelEdit()

	snap := f.board.Snapshot()
	if snap.ModalOpen || snap.Editing != "" || snap.Edit != (Form{}) {
		t.Errorf("expected modal reset, got %+v", snap)
	}
	if err := f.board.SubmitEdit(context.Background()); err != nil {
		t.Fatalf("expected no-op submit, got %v", err)
	}
	if f.board.Snapshot().Tasks[0].Title != "title" {
		t.Errorf("expected title unchanged")
	}
	if err := f.board.OpenEdit("missing"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	keep := f.add(t, "keep", "", "2024-03-07")
	drop := f.add(t, "drop", "", "2024-03-08")

	if err := f.board.Delete(context.Background(), drop.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := f.board.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete of unknown id failed: %v", err)
	}

	snap := f.board.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != keep.ID {
		t.Errorf("expected only %s, got %+v", keep.ID, snap.Tasks)
	}
}

func TestDeleteFailureKeepsList(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "stay", "", "2024-03-07")
	f.bridge.failDelete = true

	err := f.board.Delete(context.Background(), task.ID)
	if repository.KindOf(err) != repository.KindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}
	if len(f.board.Snapshot().Tasks) != 1 {
		t.Errorf("expected task to remain")
	}
}

func TestToggleComplete(t *testing.T) {
	f := newFixture(t)
	task := f.add(t, "toggle me", "", "2024-03-07")

	if err := f.board.ToggleComplete(context.Background(), task.ID); err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if !f.board.Snapshot().Tasks[0].Completed {
		t.Errorf("expected completed after first toggle")
	}

	f.bridge.failToggle = true
	if err := f.board.ToggleComplete(context.Background(), task.ID); err == nil {
		t.Fatal("expected error")
	}
	if !f.board.Snapshot().Tasks[0].Completed {
		t.Errorf("expected completed flag kept after failed toggle")
	}
	if err := f.board.ToggleComplete(context.Background(), "missing"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestSnapshotSortsByDeadline(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", "", "2024-01-10")
	f.add(t, "b", "", "2023-12-25")
	f.add(t, "c", "", "2024-06-01")

	f.board.SetSort(SortDeadline)
	var got []string
	for _, task := range f.board.Snapshot().Tasks {
		got = append(got, task.Deadline)
	}
	want := []string{"2023-12-25", "2024-01-10", "2024-06-01"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	f.board.SetSort(SortNewest)
	if first := f.board.Snapshot().Tasks[0].Title; first != "c" {
		t.Errorf("expected newest task c first, got %s", first)
	}
	f.board.SetSort(SortOldest)
	if first := f.board.Snapshot().Tasks[0].Title; first != "a" {
		t.Errorf("expected oldest task a first, got %s", first)
	}
}

// gate holds a bridge call until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait() {
	close(g.entered)
	<-g.release
}

// gatedBridge blocks List or Update on a gate before delegating.
type gatedBridge struct {
	Bridge
	list, update *gate
}

func (g *gatedBridge) List(ctx context.Context) ([]model.Task, error) {
	if g.list != nil {
		g.list.wait()
	}
	return g.Bridge.List(ctx)
}

func (g *gatedBridge) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	if g.update != nil {
		g.update.wait()
	}
	return g.Bridge.Update(ctx, id, patch)
}

func settle(t *testing.T, done <-chan error, what string) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("%s failed: %v", what, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not settle", what)
	}
}

func TestLoadingWhileListInFlight(t *testing.T) {
	f := newFixture(t)
	bridge := &gatedBridge{Bridge: f.bridge, list: newGate()}
	b := New(bridge, WithLogger(logrus.New()))

	if !b.Snapshot().Loading {
		t.Errorf("expected a new board to start loading")
	}

	done := make(chan error, 1)
	go func() { done <- b.Load(context.Background()) }()
	<-bridge.list.entered

	snap := b.Snapshot()
	if !snap.Loading || snap.Loaded {
		t.Errorf("expected loading mid-flight, got loading=%v loaded=%v", snap.Loading, snap.Loaded)
	}

	close(bridge.list.release)
	settle(t, done, "Load")

	snap = b.Snapshot()
	if snap.Loading || !snap.Loaded {
		t.Errorf("expected loaded state, got loading=%v loaded=%v", snap.Loading, snap.Loaded)
	}
}

func TestOverlappingOperationsSettleIndependently(t *testing.T) {
	f := newFixture(t)
	edited := f.add(t, "edit me", "", "2024-03-10")
	removed := f.add(t, "delete me", "", "2024-03-11")

	bridge := &gatedBridge{Bridge: f.bridge, update: newGate()}
	b := New(bridge, WithLogger(logrus.New()))
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := b.OpenEdit(edited.ID); err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	b.SetEditTitle("edited")
	submitted := make(chan error, 1)
	go func() { submitted <- b.SubmitEdit(context.Background()) }()
	<-bridge.update.entered

	deleted := make(chan error, 1)
	go func() { deleted <- b.Delete(context.Background(), removed.ID) }()
	settle(t, deleted, "Delete")

	snap := b.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != edited.ID {
		t.Fatalf("expected only the edited task left, got %+v", snap.Tasks)
	}
	if !snap.ModalOpen || snap.Tasks[0].Title != "edit me" {
		t.Errorf("edit should still be pending, got modal=%v title=%q", snap.ModalOpen, snap.Tasks[0].Title)
	}

	close(bridge.update.release)
	settle(t, submitted, "SubmitEdit")

	snap = b.Snapshot()
	if snap.ModalOpen || snap.Tasks[0].Title != "edited" {
		t.Errorf("expected the edit applied, got modal=%v title=%q", snap.ModalOpen, snap.Tasks[0].Title)
	}
}
