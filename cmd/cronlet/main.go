// Command cronlet is the CLI surface described in spec §6: it manages
// tasks.json/history.json directly for offline commands (register/
// unregister/list/check/history/logs/run) and talks to a running
// cronletd over the Unix socket for anything that needs live scheduler
// state (status/scheduled/stop) and for the post-write reload signal.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/adminhttp"
	"github.com/ErlanBelekov/cronlet/internal/at"
	"github.com/ErlanBelekov/cronlet/internal/cliout"
	"github.com/ErlanBelekov/cronlet/internal/history"
	"github.com/ErlanBelekov/cronlet/internal/ipc"
	"github.com/ErlanBelekov/cronlet/internal/paths"
	"github.com/ErlanBelekov/cronlet/internal/runner"
	"github.com/ErlanBelekov/cronlet/internal/store/jsonfile"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

const dialTimeout = 2 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("cronlet", flag.ContinueOnError)
	dataDir := global.String("data-dir", "", "data directory root (default: $XDG_DATA_HOME/cronlet)")
	verbose := global.Bool("verbose", false, "enable debug output")
	if err := global.Parse(args); err != nil {
		return 1
	}
	cliout.SetVerbose(*verbose)

	rest := global.Args()
	if len(rest) == 0 {
		cliout.Error("usage: cronlet <command> [args...]")
		return 1
	}

	resolvedDir := *dataDir
	if resolvedDir == "" {
		d, err := paths.DefaultDataDir()
		if err != nil {
			cliout.Error("resolve data directory: %v", err)
			return 1
		}
		resolvedDir = d
	}
	p := paths.New(resolvedDir)

	cmd, cmdArgs := rest[0], rest[1:]
	ctx := context.Background()

	switch cmd {
	case "register":
		return cmdRegister(ctx, p, cmdArgs)
	case "unregister":
		return cmdUnregister(ctx, p, cmdArgs)
	case "list":
		return cmdList(ctx, p)
	case "check":
		return cmdCheck(ctx, p)
	case "history":
		return cmdHistory(ctx, p, cmdArgs)
	case "logs":
		return cmdLogs(p, cmdArgs)
	case "run":
		return cmdRun(ctx, p, cmdArgs)
	case "start":
		return cmdStart(p)
	case "status":
		return cmdStatus(p)
	case "stop":
		return cmdStop(p)
	case "scheduled":
		return cmdScheduled(p)
	case "admin-token":
		return cmdAdminToken(p)
	default:
		cliout.Error("unknown command %q", cmd)
		return 1
	}
}

func cmdRegister(ctx context.Context, p paths.Paths, args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	runCmd := fs.String("run", "", "shell command to execute")
	atPattern := fs.String("at", "", "recurrence pattern, e.g. s=* m=*")
	cron := fs.String("cron", "", "standard 5-field cron expression (alternative to --at)")
	shell := fs.String("using", "", "shell to invoke the command under")
	force := fs.Bool("force-override", false, "overwrite an existing task of the same name")
	ignoreIdentical := fs.Bool("ignore-identical", false, "succeed without writing if the task is unchanged")
	silent := fs.Bool("silent", false, "suppress success output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		cliout.Error("usage: cronlet register <name> --run <cmd> --at <pattern> [--using <shell>]")
		return 1
	}
	name := fs.Arg(0)

	if !task.ValidName(name) {
		cliout.Error("invalid task name %q: must match [A-Za-z0-9_-]+", name)
		return 1
	}
	if *runCmd == "" {
		cliout.Error("--run is required")
		return 1
	}

	newTask := task.Task{Name: name, Cmd: *runCmd, Shell: *shell}
	if *cron != "" {
		if err := task.ValidateCron(*cron); err != nil {
			cliout.Error("%v", err)
			return 1
		}
		newTask.Cron = *cron
	} else {
		if *atPattern == "" {
			cliout.Error("one of --at or --cron is required")
			return 1
		}
		parsed, err := at.Parse(*atPattern)
		if err != nil {
			cliout.Error("invalid --at pattern: %v", err)
			return 1
		}
		newTask.At = parsed
	}

	id, err := task.NewID()
	if err != nil {
		cliout.Error("%v", err)
		return 1
	}
	newTask.ID = id

	tasks, err := jsonfile.NewTaskStore(p.TasksFile).Load(ctx)
	if err != nil {
		cliout.Error("load tasks: %v", err)
		return 1
	}

	if existing, exists := tasks[name]; exists {
		if *ignoreIdentical && identical(existing, newTask) {
			if !*silent {
				cliout.Info("task %q is already registered and unchanged", name)
			}
			return 0
		}
		if !*force {
			cliout.Error("task %q already exists (use --force-override)", name)
			return 2
		}
		newTask.ID = existing.ID
	}

	if err := tasks.Add(newTask, true); err != nil {
		cliout.Error("%v", err)
		return 1
	}
	if err := jsonfile.NewTaskStore(p.TasksFile).Save(ctx, tasks); err != nil {
		cliout.Error("save tasks: %v", err)
		return 1
	}

	signalReload(p)

	if !*silent {
		cliout.Success("registered task %q", name)
	}
	return 0
}

func identical(a, b task.Task) bool {
	return a.Cmd == b.Cmd && a.Shell == b.Shell && a.Cron == b.Cron && a.At.Equal(b.At)
}

func cmdUnregister(ctx context.Context, p paths.Paths, args []string) int {
	if len(args) != 1 {
		cliout.Error("usage: cronlet unregister <name>")
		return 1
	}
	name := args[0]

	ts := jsonfile.NewTaskStore(p.TasksFile)
	tasks, err := ts.Load(ctx)
	if err != nil {
		cliout.Error("load tasks: %v", err)
		return 1
	}
	if err := tasks.Remove(name); err != nil {
		cliout.Error("%v", err)
		return 1
	}
	if err := ts.Save(ctx, tasks); err != nil {
		cliout.Error("save tasks: %v", err)
		return 1
	}

	signalReload(p)
	cliout.Success("unregistered task %q", name)
	return 0
}

func cmdList(ctx context.Context, p paths.Paths) int {
	tasks, err := jsonfile.NewTaskStore(p.TasksFile).Load(ctx)
	if err != nil {
		cliout.Error("load tasks: %v", err)
		return 1
	}
	if len(tasks) == 0 {
		cliout.Info("no tasks registered")
		return 0
	}
	for _, name := range tasks.Names() {
		t := tasks[name]
		if t.UsesCron() {
			cliout.Info("%s  cron=%s  run=%q", name, t.Cron, t.Cmd)
		} else {
			cliout.Info("%s  at=%s  run=%q", name, t.At.Encode(), t.Cmd)
		}
	}
	return 0
}

func cmdCheck(ctx context.Context, p paths.Paths) int {
	tasks, err := jsonfile.NewTaskStore(p.TasksFile).Load(ctx)
	if err != nil {
		cliout.Error("load tasks: %v", err)
		return 1
	}

	bad := 0
	for _, name := range tasks.Names() {
		t := tasks[name]
		var err error
		if t.UsesCron() {
			_, err = t.NextCronOccurrence(time.Now())
		} else {
			_, err = at.NextUpcoming(time.Now(), t.At)
		}
		if err != nil {
			cliout.Error("%s: %v", name, err)
			bad++
			continue
		}
		cliout.Success("%s: ok", name)
	}
	if bad > 0 {
		return 1
	}
	return 0
}

func cmdHistory(ctx context.Context, p paths.Paths, args []string) int {
	var taskName string
	limit := 20
	if len(args) >= 1 {
		taskName = args[0]
	}
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			cliout.Error("invalid history limit %q", args[1])
			return 1
		}
		limit = n
	}

	hist, err := jsonfile.NewHistoryStore(p.HistoryFile).Load(ctx)
	if err != nil {
		cliout.Error("load history: %v", err)
		return 1
	}

	entries := hist.Entries
	if taskName != "" {
		tasks, err := jsonfile.NewTaskStore(p.TasksFile).Load(ctx)
		if err != nil {
			cliout.Error("load tasks: %v", err)
			return 1
		}
		t, ok := tasks[taskName]
		if !ok {
			cliout.Error("no such task %q", taskName)
			return 1
		}
		entries = hist.ForTask(t.ID)
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		cliout.Info("no history entries")
		return 0
	}
	for _, e := range entries {
		printHistoryEntry(e)
	}
	return 0
}

func printHistoryEntry(e history.Entry) {
	if e.Succeeded() {
		cliout.Success("%s  %s  %s (%s)", e.StartedAt.Format(time.RFC3339), e.TaskName, e.Result.String(), e.Duration())
	} else {
		cliout.Error("%s  %s  %s (%s)", e.StartedAt.Format(time.RFC3339), e.TaskName, e.Result.String(), e.Duration())
	}
}

func cmdLogs(p paths.Paths, args []string) int {
	if len(args) != 1 {
		cliout.Error("usage: cronlet logs <name>")
		return 1
	}
	logFile := p.TaskLogFile(args[0])
	data, err := os.ReadFile(logFile)
	if err != nil {
		cliout.Error("read log file: %v", err)
		return 1
	}

	if pager := os.Getenv("PAGER"); pager != "" {
		if ok := showInPager(pager, data); ok {
			return 0
		}
	}
	fmt.Print(string(data))
	return 0
}

// showInPager pipes data through the user's $PAGER, reporting whether
// it ran successfully; callers fall back to printing data directly.
func showInPager(pagerCmd string, data []byte) bool {
	cmd := exec.Command("sh", "-c", pagerCmd)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run() == nil
}

func cmdRun(ctx context.Context, p paths.Paths, args []string) int {
	if len(args) != 1 {
		cliout.Error("usage: cronlet run <name>")
		return 1
	}
	name := args[0]

	tasks, err := jsonfile.NewTaskStore(p.TasksFile).Load(ctx)
	if err != nil {
		cliout.Error("load tasks: %v", err)
		return 1
	}
	t, ok := tasks[name]
	if !ok {
		cliout.Error("no such task %q", name)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := p.EnsureDirs(); err != nil {
		cliout.Error("%v", err)
		return 1
	}

	hist := jsonfile.NewHistoryStore(p.HistoryFile)
	entry, err := runner.Run(ctx, t, p.TaskLogFile(name), hist, logger)
	if err != nil {
		cliout.Error("%v", err)
		return 1
	}
	printHistoryEntry(entry)
	if !entry.Succeeded() {
		return 1
	}
	return 0
}

// cmdStart implements spec §4.G's "on start" steps 3-5 from the CLI
// side: spawn cronletd detached from this terminal with its output
// redirected to the daemon log, then poll the socket until the child
// answers Hello before exiting.
func cmdStart(p paths.Paths) int {
	if err := p.EnsureDirs(); err != nil {
		cliout.Error("%v", err)
		return 1
	}

	if client, err := ipc.Dial(p.SocketFile, dialTimeout); err == nil {
		client.Close()
		cliout.Error("%v", ipc.ErrAlreadyRunning)
		return 1
	}

	binPath, err := exec.LookPath("cronletd")
	if err != nil {
		cliout.Error("locate cronletd binary: %v", err)
		return 1
	}

	logFile, err := os.OpenFile(p.DaemonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		cliout.Error("open daemon log: %v", err)
		return 1
	}
	defer logFile.Close()

	cmd := exec.Command(binPath, "--data-dir", p.DataDir)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		cliout.Error("start cronletd: %v", err)
		return 1
	}
	if err := cmd.Process.Release(); err != nil {
		cliout.Warn("release child process handle: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(p.SocketFile, 200*time.Millisecond)
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		_, err = client.Call(ipc.Hello)
		client.Close()
		if err == nil {
			cliout.Success("cronletd started")
			return 0
		}
	}

	cliout.Error("cronletd did not respond within the startup deadline")
	return 1
}

func cmdStatus(p paths.Paths) int {
	client, ok := dial(p)
	if !ok {
		return 1
	}
	defer client.Close()

	resp, err := client.Call(ipc.RunningTasks)
	if err != nil {
		cliout.Error("%v", err)
		return 1
	}
	if len(resp.Running) == 0 {
		cliout.Info("no tasks currently running")
		return 0
	}
	for _, r := range resp.Running {
		cliout.Info("%s (id=%d) running since %s, elapsed %s", r.TaskName, r.TaskID, r.StartedAt.Format(time.RFC3339), time.Since(r.StartedAt).Round(time.Second))
	}
	return 0
}

func cmdScheduled(p paths.Paths) int {
	client, ok := dial(p)
	if !ok {
		return 1
	}
	defer client.Close()

	resp, err := client.Call(ipc.Scheduled)
	if err != nil {
		cliout.Error("%v", err)
		return 1
	}
	for _, u := range resp.Upcoming {
		cliout.Info("%s (id=%d) next at %s", u.TaskName, u.TaskID, u.NextFire.Format(time.RFC3339))
	}
	for _, r := range resp.Running {
		cliout.Info("%s (id=%d) running, elapsed %s", r.TaskName, r.TaskID, time.Since(r.StartedAt).Round(time.Second))
	}
	return 0
}

func cmdStop(p paths.Paths) int {
	client, ok := dial(p)
	if !ok {
		return 1
	}
	defer client.Close()

	if _, err := client.Call(ipc.Stop); err != nil {
		cliout.Error("%v", err)
		return 1
	}
	cliout.Success("stop requested")
	return 0
}

// cmdAdminToken prints a bearer token for the optional admin HTTP
// surface (SPEC_FULL.md's admin-token supplemental feature), signed
// against the same daemon-local secret cronletd loads or creates at
// p.AdminKey. Running it before the daemon's first start with
// ADMIN_ADDR set provisions the key ahead of time; running it after
// reuses the existing key, so the token always matches what cronletd
// validates requests against.
func cmdAdminToken(p paths.Paths) int {
	if err := p.EnsureDirs(); err != nil {
		cliout.Error("%v", err)
		return 1
	}

	key, err := adminhttp.LoadOrCreateKey(p.AdminKey)
	if err != nil {
		cliout.Error("load admin key: %v", err)
		return 1
	}

	token, err := adminhttp.IssueToken(key)
	if err != nil {
		cliout.Error("issue admin token: %v", err)
		return 1
	}

	fmt.Println(token)
	return 0
}

func dial(p paths.Paths) (*ipc.Client, bool) {
	client, err := ipc.Dial(p.SocketFile, dialTimeout)
	if err != nil {
		cliout.Error("cronletd is not running: %v", err)
		return nil, false
	}
	return client, true
}

func signalReload(p paths.Paths) {
	client, err := ipc.Dial(p.SocketFile, dialTimeout)
	if err != nil {
		cliout.Debug("cronletd not running, skipping reload signal: %v", err)
		return
	}
	defer client.Close()
	if _, err := client.Call(ipc.ReloadTasks); err != nil {
		cliout.Warn("failed to signal reload: %v", err)
	}
}
