// Package scheduler implements the dispatch loop described in
// spec §4.E, grounded on original_source/src/engine/scheduler.rs's
// run_tasks, restructured around an explicit Dispatcher type holding
// the queue and running-task set instead of closures capturing
// Arc<RwLock<_>>, per SPEC_FULL.md's "Cyclic/graph ownership" design
// note. Instrumentation follows teacher's internal/scheduler
// dispatcher/worker pattern (component-scoped slog logger, one
// goroutine per dispatch).
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/at"
	"github.com/ErlanBelekov/cronlet/internal/metrics"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

// RunTaskFunc executes t and blocks until it finishes. Dispatcher
// calls it from a fresh goroutine per dispatch and handles marking
// the task running/not-running and re-queuing around the call; the
// function itself is only responsible for running the command and
// recording history (runner.Run bound to the configured stores).
type RunTaskFunc func(ctx context.Context, t task.Task)

// StopPredicate reports whether the loop should exit before its next
// dispatch check (spec §4.E step 1). It receives the queue so a
// caller can service a pending scheduled-snapshot request against the
// live queue view, per spec §4.G.
type StopPredicate func(queue *Queue) bool

// Dispatcher holds the scheduler's queue and running-task set and
// runs the main loop. Both are safe for concurrent access: the
// `RunningTasks` RPC handler reads Running directly, and the
// `Scheduled` snapshot of Queue/Running is built by the stop
// predicate inside the loop.
type Dispatcher struct {
	Queue   *Queue
	Running *RunningSet

	logger *slog.Logger

	// lastHeartbeat is a unix-nano timestamp updated once per loop
	// iteration, read by the admin HTTP readiness check to detect a
	// wedged scheduler goroutine, grounded on teacher's
	// scheduler.Reaper stale-heartbeat pattern.
	lastHeartbeat atomic.Int64
}

// NewDispatcher returns a Dispatcher with an empty queue and running
// set.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		Queue:   NewQueue(),
		Running: NewRunningSet(),
		logger:  logger.With("component", "scheduler"),
	}
	d.lastHeartbeat.Store(time.Now().UnixNano())
	return d
}

// LastHeartbeat reports the last time the dispatch loop completed an
// iteration. A caller can compare it against time.Now() to detect a
// stuck or exited loop.
func (d *Dispatcher) LastHeartbeat() time.Time {
	return time.Unix(0, d.lastHeartbeat.Load())
}

// Seed populates the queue from scratch by solving every task's
// upcoming occurrence relative to now. Tasks whose pattern can never
// be satisfied (ErrNoSuchDate) are logged and skipped rather than
// aborting the whole seed.
func (d *Dispatcher) Seed(tasks task.Set, now time.Time) {
	for id := range d.Queue.Snapshot() {
		d.Queue.Remove(id)
	}
	for _, t := range tasks {
		next, err := firstOccurrence(t, now)
		if err != nil {
			d.logger.Error("task has no reachable occurrence, skipping", "task", t.Name, "error", err)
			continue
		}
		d.Queue.Set(t.ID, next)
	}
}

// firstOccurrence resolves t's next fire time at or after now.
// Tasks with a literal cron expression (Task.Cron) are resolved via
// robfig/cron instead of the At solver, per SPEC_FULL.md's parallel
// recurrence-source supplemental feature.
func firstOccurrence(t task.Task, now time.Time) (time.Time, error) {
	if t.UsesCron() {
		return t.NextCronOccurrence(now)
	}
	return at.NextUpcoming(now, t.At)
}

// nextOccurrence resolves t's next fire time strictly after last, the
// re-queue counterpart of firstOccurrence used once a dispatch has
// completed.
func nextOccurrence(t task.Task, now, last time.Time) (time.Time, error) {
	if t.UsesCron() {
		return t.NextCronOccurrence(last)
	}
	return at.NextUpcomingAfterLast(now, t.At, last)
}

// Run executes the main dispatch loop until stop reports true. tasks
// is an immutable snapshot for this run; callers restart Run with a
// fresh snapshot after a reload (spec §4.G: "re-read tasks, rebuild
// queue").
func (d *Dispatcher) Run(ctx context.Context, tasks task.Set, runTask RunTaskFunc, stop StopPredicate) {
	var lastDisplayedPlanned *time.Time

	d.logger.Info("scheduler loop starting", "tasks", len(tasks))

	for {
		d.lastHeartbeat.Store(time.Now().UnixNano())

		if stop(d.Queue) {
			return
		}

		metrics.SchedulerQueueDepth.Set(float64(d.Queue.Len()))

		taskID, planned, ok := d.Queue.Nearest()
		if !ok {
			d.shortSleep(nil, &lastDisplayedPlanned)
			continue
		}

		now := secondPrecision(time.Now())
		if planned.After(now) {
			d.shortSleep(&planned, &lastDisplayedPlanned)
			continue
		}

		d.Queue.Remove(taskID)

		t, found := tasks.ByID(taskID)
		if !found {
			// an entry re-queued by a worker dispatched before the
			// last reload, for a task that reload removed; drop it
			// silently.
			continue
		}

		late := now.Sub(planned)
		if late > 0 {
			d.logger.Info("dispatching task", "task", t.Name, "late_seconds", late.Seconds())
			metrics.TaskLateSeconds.Observe(late.Seconds())
		}

		d.Running.Start(t, now)
		metrics.RunningTasksGauge.Set(float64(d.Running.Len()))

		go d.dispatch(ctx, t, planned, runTask)

		if late > 60*time.Second {
			d.logger.Warn("task dispatch was very late, host may have slept", "task", t.Name, "late_seconds", late.Seconds())
			time.Sleep(30 * time.Second)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, t task.Task, planned time.Time, runTask RunTaskFunc) {
	runTask(ctx, t)

	d.Running.Finish(t.ID)
	metrics.RunningTasksGauge.Set(float64(d.Running.Len()))

	newNext, err := nextOccurrence(t, time.Now(), planned)
	if err != nil {
		d.logger.Error("failed to compute next occurrence, task dropped from queue", "task", t.Name, "error", err)
		metrics.SchedulerDispatchTotal.WithLabelValues("requeue_error").Inc()
		return
	}
	d.Queue.Set(t.ID, newNext)
	metrics.SchedulerDispatchTotal.WithLabelValues("dispatched").Inc()
}

// shortSleep sleeps until the next whole second, per spec §4.E's
// "1,000,000,000 - now.nanosecond" policy, logging one notice when
// the soonest planned time changes.
func (d *Dispatcher) shortSleep(planned *time.Time, lastDisplayed **time.Time) {
	if planned != nil {
		if *lastDisplayed == nil || !(*lastDisplayed).Equal(*planned) {
			p := *planned
			*lastDisplayed = &p
			d.logger.Info("next task planned", "at", p)
		}
	}

	now := time.Now()
	remaining := time.Second - time.Duration(now.Nanosecond())
	time.Sleep(remaining)
}

func secondPrecision(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
