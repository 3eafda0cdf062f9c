// ABOUTME: Prometheus counters for authentication outcomes
// ABOUTME: Registered on a caller-supplied registry; a nil *Metrics records nothing

package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts authentication attempts and created sessions.
type Metrics struct {
	AttemptsTotal        *prometheus.CounterVec
	SessionsCreatedTotal prometheus.Counter
}

// NewMetrics creates and registers the auth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "microshop_auth_attempts_total",
				Help: "Total number of authentication attempts by scheme, outcome and reason",
			},
			[]string{"scheme", "outcome", "reason"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "microshop_sessions_created_total",
				Help: "Total number of cookie sessions created",
			},
		),
	}

	reg.MustRegister(m.AttemptsTotal)
	reg.MustRegister(m.SessionsCreatedTotal)

	return m
}

// Observe records the outcome of one authentication attempt.
func (m *Metrics) Observe(scheme Scheme, res Result) {
	if m == nil {
		return
	}
	if res.OK() {
		m.AttemptsTotal.WithLabelValues(string(scheme), "authenticated", "").Inc()
		return
	}
	m.AttemptsTotal.WithLabelValues(string(scheme), "rejected", string(res.Reason)).Inc()
}

// SessionCreated records a new cookie session.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}
