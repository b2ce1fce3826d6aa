// Package metrics provides Prometheus instrumentation for the wallet
// authentication protocol.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace is the Prometheus namespace for all walletauth metrics
	Namespace = "walletauth"

	LabelResult = "result"

	ResultSuccess          = "success"
	ResultInvalidAddress   = "invalid_address"
	ResultChallengeInvalid = "challenge_invalid"
	ResultSignatureInvalid = "signature_mismatch"
	ResultError            = "error"
)

// Metrics groups the collectors used by the auth service
type Metrics struct {
	ChallengesIssued  prometheus.Counter
	Verifications     *prometheus.CounterVec
	IdentitiesCreated prometheus.Counter
	VerifyDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChallengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_issued_total",
			Help:      "Total number of authentication challenges issued",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "verifications_total",
			Help:      "Total number of verification attempts by result",
		}, []string{LabelResult}),
		IdentitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "identities_created_total",
			Help:      "Total number of identities provisioned on first login",
		}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "verify_duration_seconds",
			Help:      "Duration of verification requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	reg.MustRegister(m.ChallengesIssued, m.Verifications, m.IdentitiesCreated, m.VerifyDuration)
	return m
}

// ObserveVerification records the outcome and latency of one verification
func (m *Metrics) ObserveVerification(result string, started time.Time) {
	m.Verifications.WithLabelValues(result).Inc()
	m.VerifyDuration.Observe(time.Since(started).Seconds())
}
