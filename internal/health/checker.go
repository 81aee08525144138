// Package health reports service liveness/readiness, adapted from
// teacher's internal/health to cronlet's file-backed dependencies
// (the data directory) in place of a Postgres pool.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prober is satisfied by anything that can check a dependency is
// reachable — cronlet's stand-in for teacher's *pgxpool.Pool Pinger.
type Prober interface {
	Probe(ctx context.Context) error
}

// DataDirProber checks that the data directory exists and is
// writable, by creating and removing a small probe file — the
// closest analogue cronlet has to a database ping, since its only
// external dependency is the filesystem.
type DataDirProber struct {
	Dir string
}

// Probe reports whether Dir is writable.
func (p DataDirProber) Probe(_ context.Context) error {
	probe := filepath.Join(p.Dir, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	return os.Remove(probe)
}

// CheckResult represents the health of a single dependency.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResult is the top-level health response.
type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Checker verifies that all dependencies are reachable.
type Checker struct {
	dataDir Prober
	logger  *slog.Logger
	gauge   *prometheus.GaugeVec
}

// NewChecker creates a health checker and registers its Prometheus gauge.
func NewChecker(dataDir Prober, logger *slog.Logger, reg prometheus.Registerer) *Checker {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cronlet",
		Name:      "health_check_up",
		Help:      "Whether a dependency is reachable. 1 = up, 0 = down.",
	}, []string{"dependency"})
	reg.MustRegister(gauge)

	return &Checker{
		dataDir: dataDir,
		logger:  logger.With("component", "health"),
		gauge:   gauge,
	}
}

// Liveness returns a simple "up" response if the process is running.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: "up"}
}

// Readiness checks the data directory is reachable and reports
// per-check status.
func (c *Checker) Readiness(ctx context.Context) HealthResult {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result := HealthResult{
		Status: "up",
		Checks: make(map[string]CheckResult),
	}

	if err := c.dataDir.Probe(checkCtx); err != nil {
		c.logger.Warn("data directory health check failed", "error", err)
		result.Status = "down"
		result.Checks["data_dir"] = CheckResult{Status: "down", Error: err.Error()}
		c.gauge.WithLabelValues("data_dir").Set(0)
	} else {
		result.Checks["data_dir"] = CheckResult{Status: "up"}
		c.gauge.WithLabelValues("data_dir").Set(1)
	}

	return result
}
