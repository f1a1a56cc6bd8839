// Package metrics exposes Prometheus counters for credential and license
// operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redmonkez12/trailpass/internal/apperr"
)

const namespace = "trailpass"

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Registrations        *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	LicensesIssued       *prometheus.CounterVec
	LicenseVerifications *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "User registrations by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		LicensesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "licenses_issued_total",
			Help:      "License issuance attempts by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		LicenseVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_verifications_total",
			Help:      "License verifications by result: valid, invalid or not_found.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Registrations,
		m.Logins,
		m.LicensesIssued,
		m.LicenseVerifications,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Record counts one attempt on vec, labelled by how err classifies.
func Record(vec *prometheus.CounterVec, err error) {
	kind, isDomain := apperr.KindOf(err)
	switch {
	case err == nil:
		vec.WithLabelValues(OutcomeSuccess, "").Inc()
	case isDomain:
		vec.WithLabelValues(OutcomeRejected, kind.String()).Inc()
	default:
		vec.WithLabelValues(OutcomeError, "").Inc()
	}
}
