package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so tests and tools can skip wiring it.
type Metrics struct {
	Lookups            *prometheus.CounterVec
	Actions            *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	AuditWrites        prometheus.Counter
	UpstreamDuration   *prometheus.HistogramVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opsconsole_lookups_total",
			Help: "Account lookups by provider and outcome",
		}, []string{"provider", "outcome"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "opsconsole_actions_total",
			Help: "Dispatched actions by provider, kind and outcome",
		}, []string{"provider", "kind", "outcome"}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "opsconsole_audit_write_failures_total",
			Help: "Audit rows that could not be persisted",
		}),
		AuditWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "opsconsole_audit_writes_total",
			Help: "Audit rows persisted",
		}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsconsole_upstream_request_duration_seconds",
			Help:    "Latency of upstream provider calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "op", "result"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsconsole_http_request_duration_seconds",
			Help:    "Latency of operator-facing HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncLookup counts a lookup outcome.
func (m *Metrics) IncLookup(provider, outcome string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(provider, outcome).Inc()
}

// IncAction counts a dispatch outcome.
func (m *Metrics) IncAction(provider, kind, outcome string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(provider, kind, outcome).Inc()
}

// IncAuditWrite counts a persisted audit row.
func (m *Metrics) IncAuditWrite() {
	if m == nil {
		return
	}
	m.AuditWrites.Inc()
}

// IncAuditWriteFailure counts an audit row that was lost.
func (m *Metrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

// ObserveUpstream records the latency of one upstream call.
func (m *Metrics) ObserveUpstream(provider, op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(provider, op, result).Observe(elapsed.Seconds())
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
