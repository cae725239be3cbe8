package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the trigger pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pipeline outcomes by result: success, cache_hit, validation, not_found, upstream, ...
	Requests *prometheus.CounterVec

	// Cache lookups by tier (answer, content) and result (hit, miss)
	CacheLookups *prometheus.CounterVec

	// Upstream latency by service (content, completion, persistence)
	UpstreamLatency *prometheus.HistogramVec

	// Curated memory writes that failed
	PersistenceFailures prometheus.Counter

	// Requests that joined an in-flight computation for the same trigger
	SharedRequests prometheus.Counter
}

// NewMetrics registers the pipeline metrics with reg. A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selen_requests_total",
			Help: "Total number of trigger resolutions by outcome",
		}, []string{"outcome"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selen_cache_lookups_total",
			Help: "Total number of cache lookups by tier and result",
		}, []string{"tier", "result"}),

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selen_upstream_duration_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}, // completion timeout is 10s
		}, []string{"service"}),

		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "selen_persistence_failures_total",
			Help: "Total number of curated memory writes that failed",
		}),

		SharedRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "selen_shared_requests_total",
			Help: "Total number of requests served by an in-flight computation for the same trigger",
		}),
	}
}

// RecordRequest records a pipeline outcome
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a hit or miss on a cache tier
func (m *Metrics) RecordCacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// ObserveUpstream records how long an upstream call took
func (m *Metrics) ObserveUpstream(service string, started time.Time) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(service).Observe(time.Since(started).Seconds())
}

// RecordPersistenceFailure records a failed curated memory write
func (m *Metrics) RecordPersistenceFailure() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

// RecordSharedRequest records a request deduplicated onto an in-flight computation
func (m *Metrics) RecordSharedRequest() {
	if m == nil {
		return
	}
	m.SharedRequests.Inc()
}
