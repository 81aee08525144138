// Command cronletd is the long-running background process: it binds
// the Unix socket, runs the scheduler loop, and optionally exposes the
// admin HTTP surface. Structured the way teacher's cmd/scheduler/main.go
// wires config, logger, signal handling, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/cronlet/config"
	"github.com/ErlanBelekov/cronlet/internal/adminhttp"
	"github.com/ErlanBelekov/cronlet/internal/daemon"
	"github.com/ErlanBelekov/cronlet/internal/health"
	ctxlog "github.com/ErlanBelekov/cronlet/internal/log"
	"github.com/ErlanBelekov/cronlet/internal/metrics"
	"github.com/ErlanBelekov/cronlet/internal/notify"
	"github.com/ErlanBelekov/cronlet/internal/paths"
	"github.com/ErlanBelekov/cronlet/internal/store/jsonfile"
)

func main() {
	dataDir := flag.String("data-dir", "", "data directory root (default: $XDG_DATA_HOME/cronlet)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(cfg.Env, level)

	resolvedDir := *dataDir
	if resolvedDir == "" {
		resolvedDir, err = paths.DefaultDataDir()
		if err != nil {
			log.Fatalf("resolve data directory: %v", err)
		}
	}
	p := paths.New(resolvedDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	tasks := jsonfile.NewTaskStore(p.TasksFile)
	hist := jsonfile.NewHistoryStore(p.HistoryFile)

	svc := daemon.NewService(p, tasks, hist, logger)
	if cfg.NotifyEmail != "" {
		svc.Notify = notify.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
		svc.NotifyTo = cfg.NotifyEmail
	}

	if err := svc.Bind(ctx); err != nil {
		log.Fatalf("bind: %v", err)
	}

	var adminSrv *adminhttp.Server
	if cfg.AdminAddr != "" {
		key, err := adminhttp.LoadOrCreateKey(p.AdminKey)
		if err != nil {
			log.Fatalf("admin key: %v", err)
		}
		checker := health.NewChecker(health.DataDirProber{Dir: p.DataDir}, logger, prometheus.DefaultRegisterer)
		staleAfter := time.Duration(cfg.HeartbeatStaleSec) * time.Second

		dispatcher := svc.Dispatcher()
		adminSrv = adminhttp.NewServer(cfg.AdminAddr, key, checker, dispatcher.LastHeartbeat, staleAfter, logger)
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin http surface stopped", "error", err)
			}
		}()
	}

	// svc.Run blocks until ctx is cancelled (signal) or an RPC Stop
	// request is served, draining in-flight tasks before returning.
	if err := svc.Run(ctx); err != nil {
		logger.Error("service exited", "error", err)
	}

	if adminSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin http shutdown", "error", err)
		}
	}

	logger.Info("daemon shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
