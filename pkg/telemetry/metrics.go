// Package telemetry exposes import counters for Prometheus.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcomes.
const (
	OutcomeReview    = "review"
	OutcomeError     = "error"
	OutcomeCommitted = "committed"
)

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	imports             *prometheus.CounterVec
	rowsSkipped         *prometheus.CounterVec
	classifierFallbacks *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizbuck_imports_total",
				Help: "Statement imports by outcome.",
			},
			[]string{"outcome"},
		),
		rowsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizbuck_rows_skipped_total",
				Help: "Statement rows dropped during extraction.",
			},
			[]string{"reason"},
		),
		classifierFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vizbuck_classifier_fallbacks_total",
				Help: "Batches that kept default categories.",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) RecordImport(outcome string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSkippedRow(reason string) {
	if m == nil {
		return
	}
	m.rowsSkipped.WithLabelValues(reason).Inc()
}

// RecordFallback uses a coarse reason label; free-form error text would
// blow up cardinality.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.classifierFallbacks.WithLabelValues(reason).Inc()
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
