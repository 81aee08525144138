package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/ipc"
	"github.com/ErlanBelekov/cronlet/internal/metrics"
	"github.com/ErlanBelekov/cronlet/internal/notify"
	"github.com/ErlanBelekov/cronlet/internal/paths"
	"github.com/ErlanBelekov/cronlet/internal/runner"
	"github.com/ErlanBelekov/cronlet/internal/scheduler"
	"github.com/ErlanBelekov/cronlet/internal/store"
	"github.com/ErlanBelekov/cronlet/internal/task"
)

// Service is the long-running background process: it owns the
// socket, the scheduler, and the shared State (spec §4.G/Glossary).
type Service struct {
	Paths   paths.Paths
	Tasks   store.TaskStore
	History store.HistoryStore
	Logger  *slog.Logger

	// Notify and NotifyTo enable the failure-email supplemental
	// feature: when NotifyTo is non-empty, a Failed outcome triggers
	// Notify.NotifyFailure. Left unset, runTask skips notification
	// entirely.
	Notify   notify.Sender
	NotifyTo string

	state      *State
	dispatcher *scheduler.Dispatcher
	server     *ipc.Server
}

// NewService wires a Service against its backing stores.
func NewService(p paths.Paths, tasks store.TaskStore, hist store.HistoryStore, logger *slog.Logger) *Service {
	logger = logger.With("component", "daemon")

	s := &Service{
		Paths:   p,
		Tasks:   tasks,
		History: hist,
		Logger:  logger,
		state:   NewState(),
	}
	s.dispatcher = scheduler.NewDispatcher(logger)
	s.server = ipc.NewServer(p.SocketFile, s.handleRequest, logger)
	return s
}

// Dispatcher exposes the scheduler dispatcher for callers that need
// read-only access outside the service loop, such as the admin HTTP
// surface's readiness heartbeat check.
func (s *Service) Dispatcher() *scheduler.Dispatcher {
	return s.dispatcher
}

// Bind creates the data directories and acquires the socket, failing
// with ipc.ErrAlreadyRunning if a live service already holds it
// (spec §4.G step 2).
func (s *Service) Bind(ctx context.Context) error {
	if err := s.Paths.EnsureDirs(); err != nil {
		return err
	}
	return s.server.Bind(ctx)
}

// Run is the service's main loop (spec §4.G "on run"): spawn the
// socket accept loop, then repeatedly load tasks and run the
// scheduler until a reload or stop is observed.
func (s *Service) Run(ctx context.Context) error {
	go func() {
		if err := s.server.Serve(ctx); err != nil {
			s.Logger.Error("ipc server stopped unexpectedly", "error", err)
		}
	}()
	defer s.server.Close()

	// Cancelling ctx (process signal) is equivalent to an RPC Stop
	// request: route it through the same State.RequestStop path so
	// drain/shutdown behavior is identical either way.
	go func() {
		<-ctx.Done()
		s.state.RequestStop()
	}()

	metrics.ServiceStartTime.Set(float64(time.Now().Unix()))
	s.Logger.Info("service running", "socket", s.Paths.SocketFile)

	for {
		tasks, err := s.Tasks.Load(ctx)
		if err != nil {
			// per spec §7: errors reading tasks don't terminate the
			// service; sleep 5s and retry.
			s.Logger.Error("failed to read tasks, retrying in 5s", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		s.dispatcher.Seed(tasks, time.Now())
		s.dispatcher.Run(ctx, tasks, s.runTask, s.state.StopPredicate(s.dispatcher.Running))

		reload, exit := s.state.ConsumeStopReason()
		switch {
		case reload:
			metrics.ReloadsTotal.Inc()
			s.Logger.Info("reload observed, rebuilding queue")
			continue
		case exit:
			s.Logger.Info("stop observed, draining in-flight tasks")
			DrainWait(s.dispatcher.Running, func(remaining int) {
				s.Logger.Info("drain progress", "remaining", remaining)
			})
			return nil
		default:
			return nil
		}
	}
}

func (s *Service) runTask(ctx context.Context, t task.Task) {
	logFile := s.Paths.TaskLogFile(t.Name)
	start := time.Now()

	entry, err := runner.Run(ctx, t, logFile, s.History, s.Logger)
	if err != nil {
		s.Logger.Error("task run failed", "task", t.Name, "error", err)
		metrics.TaskExecutionDuration.WithLabelValues(t.Name, "error").Observe(time.Since(start).Seconds())
		return
	}

	outcome := "success"
	if !entry.Succeeded() {
		outcome = "failed"
	}
	metrics.TaskExecutionDuration.WithLabelValues(t.Name, outcome).Observe(time.Since(start).Seconds())

	if !entry.Succeeded() && s.Notify != nil && s.NotifyTo != "" {
		if err := s.Notify.NotifyFailure(ctx, s.NotifyTo, entry); err != nil {
			s.Logger.Error("failed to send failure notification", "task", t.Name, "error", err)
		}
	}
}

func (s *Service) handleRequest(ctx context.Context, req ipc.RequestContent) ipc.ResponseContent {
	s.Logger.DebugContext(ctx, "handling rpc", "type", req.Type)

	switch req.Type {
	case ipc.Hello:
		return ipc.ResponseContent{Type: ipc.Hello}

	case ipc.ReloadTasks:
		s.state.RequestReload()
		return ipc.ResponseContent{Type: ipc.ReloadTasks}

	case ipc.Stop:
		s.state.RequestStop()
		return ipc.ResponseContent{Type: ipc.Stop}

	case ipc.RunningTasks:
		running := s.dispatcher.Running.Snapshot()
		info := make([]ipc.RunningTaskInfo, 0, len(running))
		for _, r := range running {
			info = append(info, ipc.RunningTaskInfo{TaskID: r.Task.ID, TaskName: r.Task.Name, StartedAt: r.StartedAt})
		}
		return ipc.ResponseContent{Type: ipc.RunningTasks, Running: info}

	case ipc.Scheduled:
		snap := s.state.RequestScheduled()
		return ipc.ResponseContent{Type: ipc.Scheduled, Upcoming: snap.Upcoming, Running: snap.Running}

	default:
		return ipc.ResponseContent{Type: req.Type, Error: "unknown request type"}
	}
}
