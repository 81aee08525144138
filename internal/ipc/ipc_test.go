package ipc_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/ipc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerClient_HelloRoundTrip(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "test.sock")

	handler := func(_ context.Context, req ipc.RequestContent) ipc.ResponseContent {
		return ipc.ResponseContent{Type: req.Type}
	}

	server := ipc.NewServer(sockPath, handler, testLogger())
	if err := server.Bind(context.Background()); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer server.Close()

	go server.Serve(context.Background())

	client, err := ipc.Dial(sockPath, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Call(ipc.Hello)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Type != ipc.Hello {
		t.Fatalf("resp.Type = %q, want %q", resp.Type, ipc.Hello)
	}
}

func TestServerClient_RunningTasksPayload(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "test.sock")

	now := time.Now().Truncate(time.Second)
	handler := func(_ context.Context, req ipc.RequestContent) ipc.ResponseContent {
		return ipc.ResponseContent{
			Type: req.Type,
			Running: []ipc.RunningTaskInfo{
				{TaskID: 1, TaskName: "backup", StartedAt: now},
			},
		}
	}

	server := ipc.NewServer(sockPath, handler, testLogger())
	if err := server.Bind(context.Background()); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer server.Close()

	go server.Serve(context.Background())

	client, err := ipc.Dial(sockPath, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Call(ipc.RunningTasks)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(resp.Running) != 1 || resp.Running[0].TaskName != "backup" {
		t.Fatalf("resp.Running = %+v", resp.Running)
	}
}

func TestBind_RejectsLiveSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	handler := func(_ context.Context, req ipc.RequestContent) ipc.ResponseContent {
		return ipc.ResponseContent{Type: req.Type}
	}

	first := ipc.NewServer(sockPath, handler, testLogger())
	if err := first.Bind(context.Background()); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	go first.Serve(context.Background())

	second := ipc.NewServer(sockPath, handler, testLogger())
	if err := second.Bind(context.Background()); err == nil {
		t.Fatal("second Bind against a live socket: expected ErrAlreadyRunning, got nil")
	}
	first.Close()
}
