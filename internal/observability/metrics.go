// Package observability provides the prometheus metrics for wastenet-go.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters shared by the ingest path and the notifier.
type Metrics struct {
	registry *prometheus.Registry

	RecordsIngested    *prometheus.CounterVec
	IngestRejected     *prometheus.CounterVec
	FanoutSent         prometheus.Counter
	FanoutFailed       prometheus.Counter
	SubmissionsDropped prometheus.Counter
}

// NewMetrics creates and registers the application metrics on a dedicated
// registry so tests can instantiate them repeatedly.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wastenet_records_ingested_total",
			Help: "Number of waste records persisted, by waste type label.",
		}, []string{"type"}),
		IngestRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wastenet_ingest_rejected_total",
			Help: "Number of submissions rejected by validation, by field.",
		}, []string{"field"}),
		FanoutSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wastenet_fanout_sent_total",
			Help: "Number of detection events delivered to push subscribers.",
		}),
		FanoutFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wastenet_fanout_failed_total",
			Help: "Number of per-subscriber delivery failures.",
		}),
		SubmissionsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wastenet_submissions_dropped_total",
			Help: "Number of edge submissions dropped after transport errors.",
		}),
	}

	registry.MustRegister(m.RecordsIngested, m.IngestRejected, m.FanoutSent, m.FanoutFailed, m.SubmissionsDropped)
	return m
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
