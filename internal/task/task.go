// Package task holds cronlet's Task type and the ordered set of
// registered tasks, grounded on original_source/src/data/task.rs.
package task

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/ErlanBelekov/cronlet/internal/at"
)

var (
	// ErrInvalidName is returned when a task name fails the grammar
	// in nameValidator.
	ErrInvalidName = errors.New("invalid task name")
	// ErrNoSuchTask is returned by lookups against a Set.
	ErrNoSuchTask = errors.New("no such task")
	// ErrTaskExists is returned by Set.Add when the name is already
	// registered and the caller did not ask to override it.
	ErrTaskExists = errors.New("task already exists")
)

// DefaultShell is the shell invoked when a Task doesn't specify one,
// matching original_source/src/engine/runner.rs's DEFAULT_SHELL_CMD.
const DefaultShell = "/bin/sh -c"

var nameValidator = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name matches the task-name grammar from
// spec §3: [A-Za-z0-9_-]+.
func ValidName(name string) bool {
	return nameValidator.MatchString(name)
}

// Task is one registered job: a shell command run under a recurrence
// pattern. Cron is a supplemental, optional field (see SPEC_FULL.md):
// when set, it is a standard 5-field cron expression resolved via
// robfig/cron instead of At, and At is ignored.
type Task struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	At    at.At  `json:"at"`
	Cron  string `json:"cron,omitempty"`
	Shell string `json:"shell,omitempty"`
	Cmd   string `json:"cmd"`
}

// ShellOrDefault returns the task's shell, falling back to
// DefaultShell when unset.
func (t Task) ShellOrDefault() string {
	if t.Shell == "" {
		return DefaultShell
	}
	return t.Shell
}

// NewID generates a random 64-bit task id, the Go analogue of
// original_source's `id: random()` (rand::random::<u64>()).
func NewID() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate task id: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Set is the ordered name -> Task mapping persisted as tasks.json
// (spec §3's "Tasks set"). Backed by a map with a sorted Names()
// accessor rather than a tree, since Go has no builtin ordered map —
// JSON objects are unordered anyway, and CLI/scheduler consumers that
// need a stable order call Names().
type Set map[string]Task

// Names returns the task names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByID looks up a task by its numeric id, scanning the set since IDs
// aren't indexed separately — task sets are small (interactively
// managed, not bulk-loaded) so a linear scan is not worth a second
// map to keep in sync.
func (s Set) ByID(id uint64) (Task, bool) {
	for _, t := range s {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Add registers t under its name, failing with ErrTaskExists unless
// override is true.
func (s Set) Add(t Task, override bool) error {
	if !ValidName(t.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, t.Name)
	}
	if _, exists := s[t.Name]; exists && !override {
		return fmt.Errorf("%w: %q", ErrTaskExists, t.Name)
	}
	s[t.Name] = t
	return nil
}

// Remove deletes name from the set, failing with ErrNoSuchTask if
// it isn't registered.
func (s Set) Remove(name string) error {
	if _, exists := s[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNoSuchTask, name)
	}
	delete(s, name)
	return nil
}

// Clone returns a shallow copy, for callers that mutate a working
// copy before committing it back to the store.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
