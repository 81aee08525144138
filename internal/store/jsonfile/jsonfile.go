// Package jsonfile implements store.TaskStore and store.HistoryStore
// against the plain JSON files spec §4.C and §6 describe: tasks.json
// (atomic whole-file replace) and history.json (single JSON array,
// appended to under an exclusive file lock). Grounded on
// original_source/src/utils/save.rs's read_tasks/write_tasks/
// append_to_history, adapted to Go's renameio/flock idioms in place
// of Rust's fs::write + serde_json.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/renameio"

	"github.com/ErlanBelekov/cronlet/internal/history"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

// TaskStore persists a task.Set to a single JSON file, replaced
// atomically on every Save so a crash mid-write never corrupts it.
type TaskStore struct {
	path string
}

// NewTaskStore returns a TaskStore backed by the file at path.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

// Load reads the task set, returning an empty Set if the file
// doesn't exist yet (spec §4.C: "tasks.json absent means no tasks").
func (s *TaskStore) Load(_ context.Context) (task.Set, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return task.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}

	var tasks task.Set
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks file: %w", err)
	}
	return tasks, nil
}

// Save stringifies tasks pretty and atomically replaces the backing
// file via a temp-file-then-rename in the same directory, so readers
// never observe a partially written file.
func (s *TaskStore) Save(_ context.Context, tasks task.Set) error {
	raw, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("stringify tasks: %w", err)
	}
	if err := renameio.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	return nil
}

// HistoryStore appends execution records to a single JSON array
// file, guarded by an exclusive flock so concurrent runner goroutines
// (and concurrent cronlet processes) never interleave writes.
type HistoryStore struct {
	path string
}

// NewHistoryStore returns a HistoryStore backed by the file at path.
// The lock file lives alongside it with a ".lock" suffix.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Load reads the full history log, returning an empty History if the
// file doesn't exist yet.
func (s *HistoryStore) Load(_ context.Context) (history.History, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return history.Empty(), nil
	}
	if err != nil {
		return history.History{}, fmt.Errorf("read history file: %w", err)
	}

	var h history.History
	if err := json.Unmarshal(raw, &h.Entries); err != nil {
		return history.History{}, fmt.Errorf("parse history file: %w", err)
	}
	return h, nil
}

// Append reads the log, adds entry, and writes it back, all while
// holding an exclusive lock on s.path+".lock" — the read-modify-write
// section never races with another process's append.
func (s *HistoryStore) Append(ctx context.Context, entry history.Entry) error {
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock history file: %w", err)
	}
	defer lock.Unlock()

	h, err := s.Load(ctx)
	if err != nil {
		return err
	}
	h.Append(entry)

	raw, err := json.Marshal(h.Entries)
	if err != nil {
		return fmt.Errorf("stringify history: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}
