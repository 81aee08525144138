package task_test

import (
	"testing"

	"github.com/ErlanBelekov/cronlet/internal/at"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

func TestValidName(t *testing.T) {
	valid := []string{"backup", "backup-daily", "backup_daily", "Job123"}
	invalid := []string{"", "has space", "has/slash", "emoji🎉", "has.dot"}

	for _, name := range valid {
		if !task.ValidName(name) {
			t.Errorf("ValidName(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if task.ValidName(name) {
			t.Errorf("ValidName(%q) = true, want false", name)
		}
	}
}

func TestShellOrDefault(t *testing.T) {
	bare := task.Task{Name: "t", Cmd: "echo hi"}
	if got := bare.ShellOrDefault(); got != task.DefaultShell {
		t.Errorf("ShellOrDefault() = %q, want %q", got, task.DefaultShell)
	}

	custom := task.Task{Name: "t", Cmd: "echo hi", Shell: "/bin/bash -c"}
	if got := custom.ShellOrDefault(); got != "/bin/bash -c" {
		t.Errorf("ShellOrDefault() = %q, want %q", got, "/bin/bash -c")
	}
}

func TestSet_AddRemove(t *testing.T) {
	s := task.Set{}
	a, err := at.Parse("m=0")
	if err != nil {
		t.Fatalf("at.Parse: %v", err)
	}
	t1 := task.Task{ID: 1, Name: "hourly", At: a, Cmd: "echo hi"}

	if err := s.Add(t1, false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(t1, false); err == nil {
		t.Fatal("Add of duplicate name without override: expected error, got none")
	}
	if err := s.Add(t1, true); err != nil {
		t.Fatalf("Add with override: %v", err)
	}

	bad := task.Task{ID: 2, Name: "has space", At: a, Cmd: "echo hi"}
	if err := s.Add(bad, false); err == nil {
		t.Fatal("Add with invalid name: expected error, got none")
	}

	got, ok := s.ByID(1)
	if !ok || got.Name != "hourly" {
		t.Fatalf("ByID(1) = %+v, %v", got, ok)
	}

	if err := s.Remove("hourly"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("hourly"); err == nil {
		t.Fatal("Remove of missing name: expected error, got none")
	}
}

func TestSet_NamesSorted(t *testing.T) {
	s := task.Set{
		"zeta":  task.Task{Name: "zeta"},
		"alpha": task.Task{Name: "alpha"},
		"mid":   task.Task{Name: "mid"},
	}
	names := s.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
