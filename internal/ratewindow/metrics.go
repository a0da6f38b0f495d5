package ratewindow

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var errStoreRequired = errors.New("rate window store is required")

// Metrics tracks limiter outcomes for dashboards and alerting.
type Metrics struct {
	checks *prometheus.CounterVec
}

// NewMetrics registers limiter metrics in the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_ratewindow_checks_total",
			Help: "Rate-limit checks by outcome (allowed, rejected, failed_open).",
		}, []string{"outcome"}),
	}
}

// ObserveCheck records one check outcome.
func (m *Metrics) ObserveCheck(outcome string) {
	m.checks.WithLabelValues(outcome).Inc()
}
