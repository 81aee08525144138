package daemon_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/daemon"
	"github.com/ErlanBelekov/cronlet/internal/scheduler"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

func TestState_RequestReload_UnblocksOnConsume(t *testing.T) {
	s := daemon.NewState()
	done := make(chan struct{})

	go func() {
		s.RequestReload()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	reload, exit := s.ConsumeStopReason()
	if !reload || exit {
		t.Fatalf("ConsumeStopReason() = (%v, %v), want (true, false)", reload, exit)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestReload did not unblock after ConsumeStopReason")
	}
}

func TestState_RequestStop_UnblocksOnConsume(t *testing.T) {
	s := daemon.NewState()
	done := make(chan struct{})

	go func() {
		s.RequestStop()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	reload, exit := s.ConsumeStopReason()
	if reload || !exit {
		t.Fatalf("ConsumeStopReason() = (%v, %v), want (false, true)", reload, exit)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestStop did not unblock after ConsumeStopReason")
	}
}

func TestState_StopPredicate_ServicesSnapshotRequest(t *testing.T) {
	s := daemon.NewState()
	q := scheduler.NewQueue()
	q.Set(1, time.Now().Add(time.Hour))
	running := scheduler.NewRunningSet()
	running.Start(task.Task{ID: 2, Name: "r"}, time.Now())

	predicate := s.StopPredicate(running)

	snapDone := make(chan daemon.Snapshot)
	go func() {
		snapDone <- s.RequestScheduled()
	}()

	time.Sleep(20 * time.Millisecond)
	if predicate(q) {
		t.Fatal("predicate() = true, want false (no reload/exit requested)")
	}

	select {
	case snap := <-snapDone:
		if len(snap.Upcoming) != 1 || len(snap.Running) != 1 {
			t.Fatalf("snapshot = %+v, want 1 upcoming and 1 running", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("RequestScheduled did not return after predicate serviced it")
	}
}

func TestDrainWait_ReturnsWhenEmpty(t *testing.T) {
	running := scheduler.NewRunningSet()
	running.Start(task.Task{ID: 1, Name: "a"}, time.Now())

	go func() {
		time.Sleep(150 * time.Millisecond)
		running.Finish(1)
	}()

	var notified []int
	done := make(chan struct{})
	go func() {
		daemon.DrainWait(running, func(remaining int) {
			notified = append(notified, remaining)
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("DrainWait did not return after the running set emptied")
	}

	if len(notified) == 0 {
		t.Fatal("DrainWait never invoked onDecrease")
	}
}
