// Package metrics exposes Prometheus instrumentation for the responder.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the responder's collectors.
type Metrics struct {
	// Requests this responder claimed.
	Claimed prometheus.Counter

	// Requests seen but left for another workspace.
	Skipped prometheus.Counter

	// Decisions written, by action and reason (auto_pass, human,
	// review_failed, presenter_error, malformed, panic).
	Decisions *prometheus.CounterVec

	// Review engine latency by result (ok, error).
	ReviewDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers collectors on reg. A nil reg uses a private registry so
// callers that never scrape still get working collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Claimed: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewgate_requests_claimed_total",
			Help: "Review requests claimed by this responder.",
		}),
		Skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewgate_requests_skipped_total",
			Help: "Review requests left for a responder in another workspace.",
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewgate_decisions_total",
			Help: "Decisions written, by action and reason.",
		}, []string{"action", "reason"}),
		ReviewDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviewgate_review_duration_seconds",
			Help:    "Latency of review engine calls.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		}, []string{"result"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
