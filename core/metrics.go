package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the auth counters. Each router gets its own registry so tests
// can build several routers in one process. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	loginAttempts *prometheus.CounterVec
	accessDenied  *prometheus.CounterVec
	verifySeconds prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_login_attempts_total",
				Help: "Login attempts by outcome (success, rejected, error).",
			},
			[]string{"outcome"},
		),
		accessDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_access_denied_total",
				Help: "Privileged requests refused by reason (unauthorized, forbidden).",
			},
			[]string{"reason"},
		),
		verifySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_password_verify_seconds",
			Help:    "Time spent verifying passwords, including waiting for a hash slot.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
	m.registry.MustRegister(m.loginAttempts, m.accessDenied, m.verifySeconds)
	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) loginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) denied(reason string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.verifySeconds.Observe(d.Seconds())
}
