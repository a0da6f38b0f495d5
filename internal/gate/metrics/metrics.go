// Package metrics exposes prometheus counters for gate decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks validation and authorization outcomes.
type Metrics struct {
	validations    *prometheus.CounterVec
	authorizations *prometheus.CounterVec
}

// New registers gate metrics in the default registry.
func New() *Metrics {
	return &Metrics{
		validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_session_validations_total",
			Help: "Session validations by outcome (valid, unauthenticated, forbidden, rate_limited, profile_not_found).",
		}, []string{"outcome"}),
		authorizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_authorizations_total",
			Help: "Authorization decisions (allowed, denied, error).",
		}, []string{"decision"}),
	}
}

// ObserveValidation records one validation outcome.
func (m *Metrics) ObserveValidation(outcome string) {
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveAuthorization records one authorization decision.
func (m *Metrics) ObserveAuthorization(decision string) {
	m.authorizations.WithLabelValues(decision).Inc()
}
