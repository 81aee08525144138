package history_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/history"
)

func TestResult_String(t *testing.T) {
	code := 137
	cases := []struct {
		name string
		r    history.Result
		want string
	}{
		{"success", history.SuccessResult(), "success"},
		{"failed no code", history.FailedResult(nil), "failed (no exit code)"},
		{"failed with code", history.FailedResult(&code), "failed with code 137"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEntry_SucceededAndDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)
	e := history.Entry{
		TaskID:    1,
		TaskName:  "backup",
		StartedAt: start,
		EndedAt:   end,
		Result:    history.SuccessResult(),
	}
	if !e.Succeeded() {
		t.Error("Succeeded() = false, want true")
	}
	if e.Duration() != 5*time.Second {
		t.Errorf("Duration() = %v, want 5s", e.Duration())
	}
}

func TestHistory_AppendAndForTask(t *testing.T) {
	h := history.Empty()
	h.Append(history.Entry{TaskID: 1, TaskName: "a", Result: history.SuccessResult()})
	h.Append(history.Entry{TaskID: 2, TaskName: "b", Result: history.FailedResult(nil)})
	h.Append(history.Entry{TaskID: 1, TaskName: "a", Result: history.SuccessResult()})

	got := h.ForTask(1)
	if len(got) != 2 {
		t.Fatalf("ForTask(1) returned %d entries, want 2", len(got))
	}
	for _, e := range got {
		if e.TaskID != 1 {
			t.Errorf("ForTask(1) returned entry with TaskID=%d", e.TaskID)
		}
	}

	if len(h.ForTask(99)) != 0 {
		t.Error("ForTask(99) should return no entries")
	}
}
