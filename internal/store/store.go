// Package store defines the persistence interfaces cronlet's
// scheduler, runner, and CLI depend on, mirroring how teacher's
// internal/repository layer separates the interface from its
// concrete backing (internal/repository/postgres).
package store

import (
	"context"

	"github.com/ErlanBelekov/cronlet/internal/history"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

// TaskStore persists the registered task set (spec §4.C: tasks.json,
// whole-file atomic replace).
type TaskStore interface {
	// Load reads the current task set. An empty, non-existent backing
	// store yields an empty Set and a nil error.
	Load(ctx context.Context) (task.Set, error)
	// Save atomically replaces the backing store with tasks.
	Save(ctx context.Context, tasks task.Set) error
}

// HistoryStore persists the append-only execution log (spec §4.C:
// history.json, single JSON array, append under an exclusive file
// lock).
type HistoryStore interface {
	// Load reads the full history log.
	Load(ctx context.Context) (history.History, error)
	// Append adds entry to the log under an exclusive lock, so
	// concurrent runner goroutines never interleave writes.
	Append(ctx context.Context, entry history.Entry) error
}
