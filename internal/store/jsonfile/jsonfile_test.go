package jsonfile_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ErlanBelekov/cronlet/internal/at"
	"github.com/ErlanBelekov/cronlet/internal/history"
	"github.com/ErlanBelekov/cronlet/internal/store/jsonfile"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

func TestTaskStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewTaskStore(filepath.Join(dir, "tasks.json"))

	tasks, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("Load of missing file = %v, want empty set", tasks)
	}
}

func TestTaskStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewTaskStore(filepath.Join(dir, "tasks.json"))

	a, err := at.Parse("m=0")
	if err != nil {
		t.Fatalf("at.Parse: %v", err)
	}
	want := task.Set{
		"hourly": task.Task{ID: 1, Name: "hourly", At: a, Cmd: "echo hi"},
	}

	ctx := context.Background()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load() returned %d tasks, want 1", len(got))
	}
	gotTask, ok := got["hourly"]
	if !ok {
		t.Fatal(`Load() result missing "hourly" task`)
	}
	if gotTask.ID != 1 || gotTask.Cmd != "echo hi" {
		t.Fatalf("Load() round-trip mismatch: %+v", gotTask)
	}
}

func TestHistoryStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewHistoryStore(filepath.Join(dir, "history.json"))

	h, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(h.Entries) != 0 {
		t.Fatalf("Load of missing file = %v, want empty history", h)
	}
}

func TestHistoryStore_AppendAccumulates(t *testing.T) {
	dir := t.TempDir()
	store := jsonfile.NewHistoryStore(filepath.Join(dir, "history.json"))
	ctx := context.Background()

	entries := []history.Entry{
		{TaskID: 1, TaskName: "a", Result: history.SuccessResult()},
		{TaskID: 2, TaskName: "b", Result: history.FailedResult(nil)},
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("Load() returned %d entries, want 2", len(got.Entries))
	}
}
