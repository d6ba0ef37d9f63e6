// Package metrics exposes Prometheus collectors for the webhook service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventboard",
			Subsystem: "interactions",
			Name:      "total",
			Help:      "Interactions by sub-command and outcome.",
		},
		[]string{"subcommand", "outcome"},
	)

	deferredTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventboard",
			Subsystem: "deferred",
			Name:      "tasks_total",
			Help:      "Background units of work by outcome.",
		},
		[]string{"outcome"},
	)

	discordRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventboard",
			Subsystem: "discord",
			Name:      "requests_total",
			Help:      "Outbound Discord REST calls by operation and status.",
		},
		[]string{"op", "status"},
	)

	dashboardRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventboard",
			Subsystem: "dashboard",
			Name:      "refreshes_total",
			Help:      "Dashboard message refreshes by role and result.",
		},
		[]string{"role", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		interactions,
		deferredTasks,
		discordRequests,
		dashboardRefreshes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a finished inbound request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func ObserveInteraction(subcommand, outcome string) {
	interactions.WithLabelValues(subcommand, outcome).Inc()
}

func ObserveDeferredTask(outcome string) {
	deferredTasks.WithLabelValues(outcome).Inc()
}

// ObserveDiscordRequest records an outbound call. Status 0 means the request never got a response.
func ObserveDiscordRequest(op string, status int) {
	discordRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

func ObserveDashboardRefresh(role string, success bool) {
	dashboardRefreshes.WithLabelValues(role, strconv.FormatBool(success)).Inc()
}
