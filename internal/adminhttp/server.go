// Package adminhttp is the optional HTTP surface described in
// SPEC_FULL.md's Admin HTTP section: /metrics, /healthz, /readyz,
// bearer-JWT protected, listening on whatever address it is given
// (loopback is not enforced), additive to the Unix socket control
// plane the CLI actually depends on. Grounded on teacher's
// internal/transport/http (gin router + middleware) and
// internal/health, repurposed from a public job API to a single
// operator-facing diagnostics surface.
package adminhttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"

	"github.com/ErlanBelekov/cronlet/internal/health"
	"github.com/ErlanBelekov/cronlet/internal/metrics"
)

// HeartbeatFunc reports the last time the scheduler loop completed an
// iteration, used by the readiness check to detect a wedged loop.
type HeartbeatFunc func() time.Time

// Server is the admin HTTP surface. It is always off by default;
// callers only construct and start one when ADMIN_ADDR is set.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the admin router. staleAfter bounds how long the
// scheduler loop may go without a heartbeat before /readyz reports
// down.
func NewServer(addr string, key []byte, checker *health.Checker, heartbeat HeartbeatFunc, staleAfter time.Duration, logger *slog.Logger) *Server {
	logger = logger.With("component", "adminhttp")
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sloggin.New(logger))
	r.Use(requestMetrics())

	protected := r.Group("/", auth(key))
	protected.GET("/metrics", gin.WrapH(promhttp.Handler()))
	protected.GET("/readyz", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		if age := time.Since(heartbeat()); age > staleAfter {
			result.Status = "down"
			if result.Checks == nil {
				result.Checks = map[string]health.CheckResult{}
			}
			result.Checks["scheduler_loop"] = health.CheckResult{
				Status: "down",
				Error:  "no heartbeat in " + age.Round(time.Second).String(),
			}
		}
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	// healthz is liveness only, kept unauthenticated so a naive probe
	// (no bearer token) can still tell the process is alive.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Liveness(c.Request.Context()))
	})

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: r},
		logger:     logger,
	}
}

// ListenAndServe starts the admin HTTP surface, blocking until it
// stops or fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin http surface listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the admin HTTP surface.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method
		duration := time.Since(start).Seconds()

		metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
}
