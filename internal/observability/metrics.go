package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sweep results recorded by RecordSweep.
const (
	SweepResultSuccess = "success"
	SweepResultFailure = "failure"
	SweepResultSkipped = "skipped"
)

// Metrics exposes Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	sweeps          *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	sweepUpdated    prometheus.Counter
}

// NewMetrics initializes and registers collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "HTTP errors by route, method and error code.",
		}, []string{"path", "method", "code"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_sweeps_total",
			Help: "SLA reconciler sweeps by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_sla_sweep_duration_seconds",
			Help:    "SLA reconciler sweep duration.",
			Buckets: prometheus.DefBuckets,
		}),
		sweepUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_sla_tickets_reconciled_total",
			Help: "Tickets whose cached SLA status was changed by the reconciler.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.errors,
		m.sweeps, m.sweepDuration, m.sweepUpdated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordSweep records one reconciler tick.
func (m *Metrics) RecordSweep(result string, updated int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
	if result == SweepResultSkipped {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepUpdated.Add(float64(updated))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
