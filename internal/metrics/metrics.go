package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler metrics

	SchedulerDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cronlet",
		Name:      "scheduler_dispatch_total",
		Help:      "Total task dispatches from the scheduler queue, by outcome.",
	}, []string{"outcome"})

	SchedulerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cronlet",
		Name:      "scheduler_queue_depth",
		Help:      "Number of tasks currently waiting in the scheduler queue.",
	})

	TaskExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cronlet",
		Name:      "task_execution_duration_seconds",
		Help:      "Duration of a task's shell command execution.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"name", "outcome"})

	TaskLateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cronlet",
		Name:      "task_late_seconds",
		Help:      "Seconds between a task's planned fire time and its actual dispatch.",
		Buckets:   []float64{0, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	RunningTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cronlet",
		Name:      "running_tasks",
		Help:      "Number of task executions currently in flight.",
	})

	// Service lifecycle

	ServiceStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cronlet",
		Name:      "service_start_time_seconds",
		Help:      "Unix timestamp when the service started.",
	})

	ReloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cronlet",
		Name:      "reloads_total",
		Help:      "Number of times the task set has been reloaded.",
	})

	// HTTP metrics (admin surface)

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cronlet",
		Name:      "http_request_duration_seconds",
		Help:      "Admin HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cronlet",
		Name:      "http_requests_total",
		Help:      "Total admin HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every collector with the default Prometheus
// registry. Call once at process start.
func Register() {
	prometheus.MustRegister(
		SchedulerDispatchTotal,
		SchedulerQueueDepth,
		TaskExecutionDuration,
		TaskLateSeconds,
		RunningTasksGauge,
		ServiceStartTime,
		ReloadsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns a bare HTTP server exposing /metrics, for
// deployments that don't run the full admin HTTP surface.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
