// Package daemon implements the service process lifecycle of
// spec §4.G: a ServiceState shared between the scheduler loop and the
// socket RPC handlers, and the Service that wires them together.
// Grounded on SPEC_FULL.md's "Cyclic/graph ownership" design note,
// which calls for one ServiceState behind a single lock rather than
// the closures-over-Arc<RwLock<_>> the original source uses.
package daemon

import (
	"sync"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/ipc"
	"github.com/ErlanBelekov/cronlet/internal/scheduler"
)

// Snapshot is the payload for the `Scheduled` RPC: the queue's
// upcoming fire times plus the currently running tasks.
type Snapshot struct {
	Upcoming []ipc.ScheduledTaskInfo
	Running  []ipc.RunningTaskInfo
}

// State is cronlet's single piece of cross-cutting shared state,
// guarded by one mutex per spec §5 ("behind a single reader-writer
// lock per container"). must_reload and exit_requested are the two
// flags RPC handlers set and block on; snapshotRequested/snapshot
// implement the tri-state `scheduled_snapshot_request` from spec §4.G
// (None / Some(None) / Some(Some(snapshot))) as a bool plus a
// nullable pointer.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond

	mustReload    bool
	exitRequested bool

	snapshotRequested bool
	snapshot          *Snapshot
}

// NewState returns a fresh, idle State.
func NewState() *State {
	s := &State{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// RequestReload sets must_reload and blocks until the run loop clears
// it, which happens as soon as the scheduler loop has returned on the
// flag, before the task set is re-read and the queue rebuilt.
func (s *State) RequestReload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mustReload = true
	s.cond.Broadcast()
	for s.mustReload {
		s.cond.Wait()
	}
}

// RequestStop sets exit_requested and blocks until it clears, which
// spec §4.G says happens as soon as drain begins — not when the
// process actually exits.
func (s *State) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exitRequested = true
	s.cond.Broadcast()
	for s.exitRequested {
		s.cond.Wait()
	}
}

// RequestScheduled sets scheduled_snapshot_request to Some(None),
// blocks until the scheduler loop populates it, then consumes and
// returns it.
func (s *State) RequestScheduled() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotRequested = true
	s.snapshot = nil
	s.cond.Broadcast()
	for s.snapshot == nil {
		s.cond.Wait()
	}

	snap := *s.snapshot
	s.snapshot = nil
	s.snapshotRequested = false
	return snap
}

// StopPredicate returns the predicate passed to scheduler.Dispatcher.Run.
// It reports must_reload||exit_requested and, on every invocation,
// services a pending scheduled-snapshot request against the live
// queue and running set — per spec §4.G's "on each invocation...".
func (s *State) StopPredicate(running *scheduler.RunningSet) scheduler.StopPredicate {
	return func(q *scheduler.Queue) bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.snapshotRequested && s.snapshot == nil {
			snap := buildSnapshot(q, running)
			s.snapshot = &snap
			s.cond.Broadcast()
		}

		return s.mustReload || s.exitRequested
	}
}

// ConsumeStopReason reports and clears whichever of must_reload/
// exit_requested caused the scheduler loop to return, preferring
// reload when both are set (a reload only rebuilds the queue and
// loops again, so the exit flag survives to be observed on the next
// iteration). Matches spec §4.G's "when the scheduler returns" branch.
func (s *State) ConsumeStopReason() (reload, exit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.mustReload:
		s.mustReload = false
		s.cond.Broadcast()
		return true, false
	case s.exitRequested:
		s.exitRequested = false
		s.cond.Broadcast()
		return false, true
	default:
		return false, false
	}
}

func buildSnapshot(q *scheduler.Queue, running *scheduler.RunningSet) Snapshot {
	queueView := q.Snapshot()
	upcoming := make([]ipc.ScheduledTaskInfo, 0, len(queueView))
	for id, at := range queueView {
		upcoming = append(upcoming, ipc.ScheduledTaskInfo{TaskID: id, NextFire: at})
	}

	runningView := running.Snapshot()
	runningInfo := make([]ipc.RunningTaskInfo, 0, len(runningView))
	for _, r := range runningView {
		runningInfo = append(runningInfo, ipc.RunningTaskInfo{
			TaskID:    r.Task.ID,
			TaskName:  r.Task.Name,
			StartedAt: r.StartedAt,
		})
	}

	return Snapshot{Upcoming: upcoming, Running: runningInfo}
}

// DrainWait polls every 100 ms until running has no in-flight tasks,
// reporting the starting count once (when non-zero) and then once each
// time the count decreases.
func DrainWait(running *scheduler.RunningSet, onDecrease func(remaining int)) {
	last := running.Len()
	if last > 0 && onDecrease != nil {
		onDecrease(last)
	}
	for last > 0 {
		time.Sleep(100 * time.Millisecond)
		cur := running.Len()
		if cur < last && onDecrease != nil {
			onDecrease(cur)
		}
		last = cur
	}
}
