// Package metrics holds the Prometheus collectors of the front end.
//
// Collectors are registered on the registerer handed to New so servers and
// tests can each use their own registry. A nil *Metrics is valid and records
// nothing, which is what the CLI uses.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patientdesk"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics groups the collectors recorded by the backend client and the page
// sessions.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	FollowUps       *prometheus.CounterVec
	PageSessions    prometheus.Gauge
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Total number of requests sent to the backend",
			},
			[]string{"endpoint", "outcome"},
		),
		BackendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request latency distribution",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		FollowUps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "followup_requests_total",
				Help:      "Total number of profile follow-up requests by outcome",
			},
			[]string{"outcome"},
		),
		PageSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "page_sessions",
				Help:      "Current number of live page sessions",
			},
		),
	}
}

// ObserveBackend records one backend round trip.
func (m *Metrics) ObserveBackend(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveFollowUp records the outcome of a follow-up attempt.
func (m *Metrics) ObserveFollowUp(outcome string) {
	if m == nil {
		return
	}
	m.FollowUps.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the live page session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.PageSessions.Inc()
}

// SessionClosed decrements the live page session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.PageSessions.Dec()
}
