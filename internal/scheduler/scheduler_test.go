package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/at"
	"github.com/ErlanBelekov/cronlet/internal/scheduler"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_NearestPicksMinimum(t *testing.T) {
	q := scheduler.NewQueue()
	now := time.Now()
	q.Set(1, now.Add(time.Hour))
	q.Set(2, now.Add(time.Minute))
	q.Set(3, now.Add(24*time.Hour))

	id, planned, ok := q.Nearest()
	if !ok {
		t.Fatal("Nearest() ok = false, want true")
	}
	if id != 2 {
		t.Fatalf("Nearest() id = %d, want 2", id)
	}
	if !planned.Equal(now.Add(time.Minute)) {
		t.Fatalf("Nearest() planned = %v, want %v", planned, now.Add(time.Minute))
	}
}

func TestQueue_RemoveAndLen(t *testing.T) {
	q := scheduler.NewQueue()
	q.Set(1, time.Now())
	q.Set(2, time.Now())
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	q.Remove(1)
	if q.Len() != 1 {
		t.Fatalf("Len() after Remove = %d, want 1", q.Len())
	}
	if _, _, ok := q.Nearest(); !ok {
		t.Fatal("Nearest() ok = false after removing one of two, want true")
	}
}

func TestRunningSet_StartFinish(t *testing.T) {
	r := scheduler.NewRunningSet()
	tk := task.Task{ID: 1, Name: "a"}
	r.Start(tk, time.Now())
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].Task.Name != "a" {
		t.Fatalf("Snapshot() = %+v", snap)
	}
	r.Finish(1)
	if r.Len() != 0 {
		t.Fatalf("Len() after Finish = %d, want 0", r.Len())
	}
}

func TestDispatcher_Run_DispatchesDueTask(t *testing.T) {
	a, err := at.Parse("s=*")
	if err != nil {
		t.Fatalf("at.Parse: %v", err)
	}
	tk := task.Task{ID: 1, Name: "every-second", At: a, Cmd: "true"}
	tasks := task.Set{"every-second": tk}

	d := scheduler.NewDispatcher(testLogger())
	d.Seed(tasks, time.Now())

	var calls int64
	runTask := func(_ context.Context, t task.Task) {
		atomic.AddInt64(&calls, 1)
	}

	stop := func(q *scheduler.Queue) bool {
		return atomic.LoadInt64(&calls) >= 2
	}

	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), tasks, runTask, stop)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("dispatcher did not stop within 10s")
	}

	if atomic.LoadInt64(&calls) < 2 {
		t.Fatalf("calls = %d, want at least 2", calls)
	}
}

func TestDispatcher_Run_EmptyQueueStopsPromptly(t *testing.T) {
	d := scheduler.NewDispatcher(testLogger())
	tasks := task.Set{}

	stopped := make(chan struct{})
	var checks int64
	stop := func(q *scheduler.Queue) bool {
		return atomic.AddInt64(&checks, 1) > 1
	}

	go func() {
		d.Run(context.Background(), tasks, func(context.Context, task.Task) {}, stop)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher with empty queue did not stop promptly")
	}
}
