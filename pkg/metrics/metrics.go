package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the HTTP and dispatch collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	AlertsCreated      *prometheus.CounterVec
	AlertsDeduplicated prometheus.Counter
	AlertsResolved     prometheus.Counter
	AssignmentsCreated prometheus.Counter
	Responses          *prometheus.CounterVec
	RealtimeDropped    prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AlertsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_alerts_created_total",
				Help: "Alerts persisted, by severity level.",
			},
			[]string{"level"},
		),
		AlertsDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sos_alerts_deduplicated_total",
			Help: "Creation requests answered with the reporter's existing active alert.",
		}),
		AlertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sos_alerts_resolved_total",
			Help: "Alerts moved to resolved.",
		}),
		AssignmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sos_assignments_created_total",
			Help: "Roster entries created by the assignment procedure.",
		}),
		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_volunteer_responses_total",
				Help: "Volunteer responses, by resulting status.",
			},
			[]string{"status"},
		),
		RealtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sos_realtime_dropped_total",
			Help: "Realtime events that could not be queued for a recipient.",
		}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.AlertsCreated, m.AlertsDeduplicated, m.AlertsResolved,
		m.AssignmentsCreated, m.Responses, m.RealtimeDropped,
	)
	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records RPS, latency and in-flight requests per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.httpInFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		m.httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.httpInFlight.Dec()
	}
}
