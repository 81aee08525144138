package scheduler

import (
	"sync"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/task"
)

// RunningEntry describes one task execution currently in flight.
type RunningEntry struct {
	Task      task.Task
	StartedAt time.Time
}

// RunningSet tracks in-flight executions, the complement of Queue:
// spec §8 requires that running_tasks and the queue partition the
// known task_ids, so every dispatch moves a task_id from one to the
// other under the same lock discipline.
type RunningSet struct {
	mu      sync.RWMutex
	entries map[uint64]RunningEntry
}

// NewRunningSet returns an empty RunningSet.
func NewRunningSet() *RunningSet {
	return &RunningSet{entries: make(map[uint64]RunningEntry)}
}

// Start records taskID as running.
func (r *RunningSet) Start(t task.Task, startedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[t.ID] = RunningEntry{Task: t, StartedAt: startedAt}
}

// Finish removes taskID from the running set.
func (r *RunningSet) Finish(taskID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, taskID)
}

// Len reports how many executions are currently in flight.
func (r *RunningSet) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns the currently running tasks, used to answer the
// `Scheduled` and `RunningTasks` RPCs.
func (r *RunningSet) Snapshot() []RunningEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RunningEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}
