// Package metrics exposes Prometheus instruments for the unlock flow.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facelock"

type Metrics struct {
	unlockOutcomes  *prometheus.CounterVec
	verifyDuration  prometheus.Histogram
	leaseTakeovers  prometheus.Counter
	intrusionAlerts prometheus.Counter
	activeSessions  prometheus.Gauge
	slowSessions    prometheus.Counter
	riskLevels      *prometheus.CounterVec
	policyReloads   *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		unlockOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unlock_attempts_total",
			Help:      "Unlock attempts by outcome and failure reason.",
		}, []string{"outcome", "reason"}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Time spent waiting for the face verifier.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		leaseTakeovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lease_takeovers_total",
			Help:      "Per-item leases taken over after exceeding their maximum hold.",
		}),
		intrusionAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intrusion_alerts_total",
			Help:      "Unlock attempts by someone other than the recipient.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_sessions",
			Help:      "Currently connected event stream sessions.",
		}),
		slowSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_sessions_dropped_total",
			Help:      "Event sessions closed because they fell behind.",
		}),
		riskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Risk assessments by resulting level.",
		}, []string{"level"}),
		policyReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_policy_reloads_total",
			Help:      "Risk policy reload attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.unlockOutcomes, m.verifyDuration, m.leaseTakeovers, m.intrusionAlerts,
		m.activeSessions, m.slowSessions, m.riskLevels, m.policyReloads,
	)
	return m
}

func (m *Metrics) UnlockOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	m.unlockOutcomes.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) VerificationDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.verifyDuration.Observe(d.Seconds())
}

func (m *Metrics) LeaseTakeover() {
	if m == nil {
		return
	}
	m.leaseTakeovers.Inc()
}

func (m *Metrics) IntrusionAlert() {
	if m == nil {
		return
	}
	m.intrusionAlerts.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) SlowSessionDropped() {
	if m == nil {
		return
	}
	m.slowSessions.Inc()
}

func (m *Metrics) RiskAssessed(level string) {
	if m == nil {
		return
	}
	m.riskLevels.WithLabelValues(level).Inc()
}

func (m *Metrics) PolicyReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.policyReloads.WithLabelValues(result).Inc()
}
