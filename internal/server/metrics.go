package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repoingest/internal/models"
)

// Metrics holds the Prometheus counters for the ingestion endpoint.
type Metrics struct {
	registry      *prometheus.Registry
	ingestions    *prometheus.CounterVec
	cloneFailures prometheus.Counter
}

// NewMetrics creates and registers the counters on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repoingest_ingestions_total",
			Help: "Ingestion requests by outcome (success or failure category).",
		}, []string{"outcome"}),
		cloneFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repoingest_clone_failures_total",
			Help: "Non-fatal clone failures after successful ingestions.",
		}),
	}

	reg.MustRegister(m.ingestions, m.cloneFailures)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Observe records a finished ingestion.
func (m *Metrics) Observe(res *models.IngestResult) {
	outcome := "success"
	if !res.Success {
		outcome = string(res.ErrorType)
		if outcome == "" {
			outcome = string(models.ErrInternalError)
		}
	}
	m.ingestions.WithLabelValues(outcome).Inc()

	if res.CloneError != "" {
		m.cloneFailures.Inc()
	}
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
