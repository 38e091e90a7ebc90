package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
// All methods are safe on a nil receiver so tests can skip registration.
type Metrics struct {
	// Committed transitions by new status and owner type
	Transitions *prometheus.CounterVec

	// Failed transitions by error class
	TransitionFailures *prometheus.CounterVec

	// Duration of the transition transaction
	TransitionLatency prometheus.Histogram

	// Verifications whose owner flag disagrees with their status, from the last audit
	FlagDrift prometheus.Gauge
}

// New registers the verification metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ridehail_verification_transitions_total",
			Help: "Committed verification status transitions by status and owner type",
		}, []string{"status", "owner_type"}),

		TransitionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ridehail_verification_transition_failures_total",
			Help: "Rejected or rolled back verification status transitions by reason",
		}, []string{"reason"}), // invalid_argument, not_found, conflict, transaction

		TransitionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ridehail_verification_transition_duration_seconds",
			Help:    "Duration of the verification transition transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		FlagDrift: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ridehail_verification_flag_drift",
			Help: "Verifications whose owner flag disagrees with their status at the last audit",
		}),
	}
}

func (m *Metrics) IncrementTransition(status, ownerType string) {
	if m != nil {
		m.Transitions.WithLabelValues(status, ownerType).Inc()
	}
}

func (m *Metrics) IncrementFailure(reason string) {
	if m != nil {
		m.TransitionFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) SetFlagDrift(n int) {
	if m != nil {
		m.FlagDrift.Set(float64(n))
	}
}
