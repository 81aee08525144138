// Package paths centralizes the data-directory layout described in
// spec §6: tasks.json, history.json, the daemon's socket/log, and
// per-task execution logs all live under one root.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the resolved, created-on-demand set of locations cronlet
// reads and writes. Grounded on original_source/src/data/paths.rs'
// Paths struct, adapted to the single-history-file layout spec.md §6
// mandates instead of crony's per-task history directories.
type Paths struct {
	DataDir   string
	DaemonDir string
	TasksDir  string

	TasksFile   string
	HistoryFile string

	SocketFile string
	DaemonLog  string
	AdminKey   string
}

// New resolves the data directory layout rooted at dataDir.
func New(dataDir string) Paths {
	daemonDir := filepath.Join(dataDir, "daemon")
	return Paths{
		DataDir:   dataDir,
		DaemonDir: daemonDir,
		TasksDir:  filepath.Join(dataDir, "tasks"),

		TasksFile:   filepath.Join(dataDir, "tasks.json"),
		HistoryFile: filepath.Join(dataDir, "history.json"),

		SocketFile: filepath.Join(daemonDir, "daemon.sock"),
		DaemonLog:  filepath.Join(daemonDir, "daemon.log"),
		AdminKey:   filepath.Join(daemonDir, "admin.key"),
	}
}

// TaskLogFile returns the per-task execution log path.
func (p Paths) TaskLogFile(taskName string) string {
	return filepath.Join(p.TasksDir, taskName+".log")
}

// EnsureDirs creates the data, daemon, and tasks directories if they
// are missing.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.DaemonDir, p.TasksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultDataDir resolves $XDG_DATA_HOME/cronlet, falling back to
// $HOME/.local/share/cronlet per the XDG base-directory convention
// spec.md §6 names as the fallback.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cronlet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "cronlet"), nil
}
