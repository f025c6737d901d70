// Package metrics exposes process-level Prometheus counters for the assistant.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Veraticus/loanbot/internal/model"
)

// Metrics holds all Prometheus metrics for the application.
// Every method is safe to call on a nil *Metrics.
type Metrics struct {
	Turns            prometheus.Counter
	Decisions        *prometheus.CounterVec
	PIIDetections    *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
	Fallbacks        prometheus.Counter
	ActiveSessions   prometheus.Gauge
	TurnLatency      prometheus.Histogram
	EndpointLatency  *prometheus.HistogramVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanbot_turns_total",
			Help: "Total number of applicant messages processed",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loanbot_decisions_total",
			Help: "Total number of eligibility decisions, labeled by status",
		}, []string{"status"}),
		PIIDetections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loanbot_pii_detections_total",
			Help: "Total number of messages with PII masked, labeled by category",
		}, []string{"category"}),
		UpstreamFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanbot_upstream_failures_total",
			Help: "Total number of failed language model attempts",
		}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanbot_fallback_responses_total",
			Help: "Total number of degraded responses substituted after retries were exhausted",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loanbot_active_sessions",
			Help: "Current number of open conversations",
		}),
		TurnLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanbot_turn_latency_seconds",
			Help:    "Latency of a full conversational turn in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanbot_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// ObserveTurn records one processed message and how long it took.
func (m *Metrics) ObserveTurn(d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.Inc()
	m.TurnLatency.Observe(d.Seconds())
}

// ObserveDecision counts a decision by status.
func (m *Metrics) ObserveDecision(status model.DecisionStatus) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(status)).Inc()
}

// ObservePII counts each masked category.
func (m *Metrics) ObservePII(categories []string) {
	if m == nil {
		return
	}
	for _, c := range categories {
		m.PIIDetections.WithLabelValues(c).Inc()
	}
}

// ObserveUpstreamFailure counts one failed model attempt.
func (m *Metrics) ObserveUpstreamFailure() {
	if m == nil {
		return
	}
	m.UpstreamFailures.Inc()
}

// ObserveFallback counts one degraded response.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveEndpoint records the latency of an HTTP endpoint.
func (m *Metrics) ObserveEndpoint(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}
