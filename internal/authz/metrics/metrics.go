// Package metrics holds the Prometheus collectors for authorization decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision outcomes used as the outcome label.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
	OutcomeInvalid  = "invalid_input"
	OutcomeBypassed = "bypassed"
)

// Metrics holds all Prometheus metrics for the gate.
type Metrics struct {
	DecisionsTotal          *prometheus.CounterVec
	DecisionDuration        *prometheus.HistogramVec
	DeviceEvictionsTotal    prometheus.Counter
	DeviceReactivations     *prometheus.CounterVec
	SessionsRotatedTotal    prometheus.Counter
	SessionsExpiredTotal    prometheus.Counter
	AuditWriteFailuresTotal prometheus.Counter
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with registry. A nil registry leaves them unregistered.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_authz_decisions_total",
				Help: "Total number of authorization decisions by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "entitlement_authz_decision_duration_seconds",
				Help:    "Time to reach an authorization decision, including per-account queueing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
		DeviceEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitlement_device_evictions_total",
			Help: "Devices deactivated to make room for a new device",
		}),
		DeviceReactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_device_reactivations_total",
				Help: "Previously evicted devices that came back, by whether the account ended over capacity",
			},
			[]string{"over_capacity"},
		),
		SessionsRotatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitlement_sessions_created_total",
			Help: "Sessions created by successful authorizations",
		}),
		SessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitlement_sessions_expired_total",
			Help: "Sessions expired because a newer login replaced them",
		}),
		AuditWriteFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitlement_audit_write_failures_total",
			Help: "Decision audit records that could not be persisted",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "entitlement_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	if registry != nil {
		registry.MustRegister(
			m.DecisionsTotal,
			m.DecisionDuration,
			m.DeviceEvictionsTotal,
			m.DeviceReactivations,
			m.SessionsRotatedTotal,
			m.SessionsExpiredTotal,
			m.AuditWriteFailuresTotal,
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
		)
	}
	return m
}

// Handler returns the /metrics handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
