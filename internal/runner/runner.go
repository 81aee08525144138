// Package runner executes a task's shell command and records the
// result, grounded on original_source/src/engine/runner.rs.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/history"
	"github.com/ErlanBelekov/cronlet/internal/store"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

// Sentinel errors surfaced to callers, matching spec §4.D and §7's
// runner failure taxonomy. The scheduler logs these and continues
// rather than treating them as fatal (spec §7's propagation policy).
var (
	ErrSpawn         = errors.New("failed to spawn task command")
	ErrPipe          = errors.New("failed to obtain output pipe")
	ErrIO            = errors.New("failed to write task output")
	ErrHistoryAppend = errors.New("failed to append history entry")
)

// Run executes t's command under t.ShellOrDefault(), streaming merged
// stdout/stderr through either logFile (when non-empty, append mode,
// banner-wrapped) or os.Stdout, and appends the resulting HistoryEntry
// to hist. It does not retry on failure.
func Run(ctx context.Context, t task.Task, logFile string, hist store.HistoryStore, logger *slog.Logger) (history.Entry, error) {
	logger = logger.With("component", "runner", "task", t.Name)

	startedAt := secondPrecision(time.Now())
	logger.Info("task started", "started_at", startedAt)

	shellParts := strings.Fields(t.ShellOrDefault())
	if len(shellParts) == 0 {
		return history.Entry{}, fmt.Errorf("%w: empty shell command", ErrSpawn)
	}
	args := append(append([]string{}, shellParts[1:]...), t.Cmd)
	cmd := exec.CommandContext(ctx, shellParts[0], args...)

	pipeReader, pipeWriter, err := os.Pipe()
	if err != nil {
		return history.Entry{}, fmt.Errorf("%w: %v", ErrPipe, err)
	}
	cmd.Stdout = pipeWriter
	cmd.Stderr = pipeWriter

	var logFh *os.File
	if logFile != "" {
		logFh, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			pipeWriter.Close()
			pipeReader.Close()
			return history.Entry{}, fmt.Errorf("%w: open log file: %v", ErrIO, err)
		}
		defer logFh.Close()
	}

	if err := cmd.Start(); err != nil {
		pipeWriter.Close()
		pipeReader.Close()
		return history.Entry{}, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	// the child holds the only other reference to the write end; close
	// ours so reads on pipeReader observe EOF once the child exits.
	pipeWriter.Close()

	if logFh != nil {
		writeBanner(logFh, fmt.Sprintf("=======> Started on %s\n\n", time.Now().Format(time.RFC3339)))
	}

	if err := streamOutput(pipeReader, logFh); err != nil {
		logger.Warn("error streaming task output", "error", err)
	}

	if logFh != nil {
		writeBanner(logFh, fmt.Sprintf("\n=======> Ended on %s\n\n\n", time.Now().Format(time.RFC3339)))
	}

	waitErr := cmd.Wait()
	endedAt := secondPrecision(time.Now())

	result := resultFromWaitErr(waitErr)

	logger.Info("task finished", "ended_at", endedAt, "result", result.String())

	entry := history.Entry{
		TaskID:    t.ID,
		TaskName:  t.Name,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Result:    result,
	}

	if hist != nil {
		if err := hist.Append(ctx, entry); err != nil {
			return entry, fmt.Errorf("%w: %v", ErrHistoryAppend, err)
		}
	}

	return entry, nil
}

func resultFromWaitErr(waitErr error) history.Result {
	if waitErr == nil {
		return history.SuccessResult()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// negative ExitCode means the process was killed by a
			// signal rather than exiting normally; no code to report.
			return history.FailedResult(nil)
		}
		return history.FailedResult(&code)
	}
	return history.FailedResult(nil)
}

func streamOutput(r io.Reader, logFh *os.File) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), scanner.Text())
		if logFh != nil {
			if _, err := fmt.Fprintln(logFh, line); err != nil {
				return fmt.Errorf("%w: %v", ErrIO, err)
			}
		} else {
			fmt.Println(line)
		}
	}
	return scanner.Err()
}

func writeBanner(logFh *os.File, banner string) {
	_, _ = logFh.WriteString(banner)
}

func secondPrecision(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
