// Package history models execution records for completed task runs,
// grounded on original_source/src/data/history.rs.
package history

import (
	"strconv"
	"time"
)

// Outcome is a TaskResult discriminant, represented as a string per
// SPEC_FULL.md §3 rather than the Rust enum — the same choice teacher's
// domain.Status makes for a string-backed enum over an interface.
type Outcome string

const (
	Success Outcome = "success"
	Failed  Outcome = "failed"
)

// Result is the outcome of one task run. Code is nil on success, and
// nil on failure when the process was killed by a signal rather than
// exiting with a code (original_source's TaskResult::Failed { code:
// Option<i32> }).
type Result struct {
	Outcome Outcome `json:"outcome"`
	Code    *int    `json:"code,omitempty"`
}

// String renders a human-readable summary, e.g. for `cronlet history`
// and CLI log lines — mirrors original_source/src/data/history.rs's
// Display impl for TaskResult.
func (r Result) String() string {
	switch r.Outcome {
	case Success:
		return "success"
	case Failed:
		if r.Code == nil {
			return "failed (no exit code)"
		}
		return "failed with code " + strconv.Itoa(*r.Code)
	default:
		return string(r.Outcome)
	}
}

// Succeeded reports whether the run completed successfully.
func (r Result) Succeeded() bool {
	return r.Outcome == Success
}

// SuccessResult builds a Result for a clean run.
func SuccessResult() Result {
	return Result{Outcome: Success}
}

// FailedResult builds a Result for a failed run, code nil when the
// process was terminated by a signal rather than an exit code.
func FailedResult(code *int) Result {
	return Result{Outcome: Failed, Code: code}
}

// Entry is one row of history.json: the record of a single task
// execution.
type Entry struct {
	TaskID    uint64    `json:"task_id"`
	TaskName  string    `json:"task_name"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Result    Result    `json:"result"`
}

// Succeeded reports whether this run's result was a success.
func (e Entry) Succeeded() bool {
	return e.Result.Succeeded()
}

// Duration is the wall-clock time the run took.
func (e Entry) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// History is the full ordered log of executions, as persisted in
// history.json (spec §4.C: "a single JSON array").
type History struct {
	Entries []Entry `json:"entries"`
}

// Empty returns a History with no entries.
func Empty() History {
	return History{Entries: nil}
}

// Append adds entry to the end of the log.
func (h *History) Append(entry Entry) {
	h.Entries = append(h.Entries, entry)
}

// ForTask returns the entries recorded for a single task id, in
// original chronological order.
func (h History) ForTask(taskID uint64) []Entry {
	var out []Entry
	for _, e := range h.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}
