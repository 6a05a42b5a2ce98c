// Package metricsx holds the Prometheus counters of the portal. A nil
// *Metrics is valid and records nothing.
package metricsx

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes.
const (
	OutcomeIssued   = "issued"
	OutcomeUpstream = "upstream_error"
	OutcomeDenied   = "denied"
)

type Metrics struct {
	UsersProvisioned   prometheus.Counter
	IdentitiesRejected *prometheus.CounterVec
	ClaimsPropagated   prometheus.Counter
	RecoveryRequests   prometheus.Counter
	VerificationCodes  *prometheus.CounterVec
}

// New registers every portal metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersProvisioned: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_users_provisioned_total",
			Help: "Total number of users created by an administrator",
		}),
		IdentitiesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_identities_rejected_total",
			Help: "Identity records deleted because they had no valid profile",
		}, []string{"reason"}),
		ClaimsPropagated: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_claims_propagated_total",
			Help: "Profile changes projected onto identity claims",
		}),
		RecoveryRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_recovery_requests_total",
			Help: "Accepted password recovery requests",
		}),
		VerificationCodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_verification_codes_total",
			Help: "Verification code requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) UserProvisioned() {
	if m != nil {
		m.UsersProvisioned.Inc()
	}
}

func (m *Metrics) IdentityRejected(reason string) {
	if m != nil {
		m.IdentitiesRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ClaimsPropagatedOnce() {
	if m != nil {
		m.ClaimsPropagated.Inc()
	}
}

func (m *Metrics) RecoveryRequested() {
	if m != nil {
		m.RecoveryRequests.Inc()
	}
}

func (m *Metrics) VerificationCode(outcome string) {
	if m != nil {
		m.VerificationCodes.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
