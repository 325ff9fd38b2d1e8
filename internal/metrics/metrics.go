// Package metrics exposes dashboard metrics for Prometheus scraping.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"reconview/pkg/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	finished       *prometheus.CounterVec
	polls          *prometheus.CounterVec
	resultLoads    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconview_scan_submissions_total",
			Help: "Scan submissions by outcome",
		},
		[]string{"outcome"},
	)
	m.finished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconview_scans_finished_total",
			Help: "Scans that reached a terminal state",
		},
		[]string{"status"},
	)
	m.polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconview_status_polls_total",
			Help: "Status polls by outcome",
		},
		[]string{"outcome"},
	)
	m.resultLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconview_result_loads_total",
			Help: "Result fetches from the backend by outcome",
		},
		[]string{"outcome"},
	)
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconview_http_requests_total",
			Help: "Dashboard HTTP requests",
		},
		[]string{"method", "route", "code"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconview_http_request_duration_seconds",
			Help:    "Dashboard HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	m.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reconview_active_sessions",
		Help: "Browser sessions holding a scan controller",
	})

	m.registry.MustRegister(
		m.submissions,
		m.finished,
		m.polls,
		m.resultLoads,
		m.httpRequests,
		m.httpDuration,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSubmission(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePoll(outcome string) {
	m.polls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveResultLoad(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resultLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// TransitionHook counts jobs reaching a terminal state.
func (m *Metrics) TransitionHook() lifecycle.TransitionHook {
	return func(_ context.Context, from lifecycle.State, snap lifecycle.Snapshot) {
		if from != snap.State && snap.State.Terminal() {
			m.finished.WithLabelValues(string(snap.State)).Inc()
		}
	}
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
