package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// InvitesIssued counts family invites created.
	InvitesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_invites_issued_total",
			Help: "Total number of family invites issued",
		},
	)

	// InvitesIssueFailures counts invite issuance attempts that failed.
	InvitesIssueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_invites_issue_failures_total",
			Help: "Total number of failed invite issuance attempts",
		},
	)

	// InviteRedemptions counts redemption attempts by path (code|id) and result.
	InviteRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_invite_redemptions_total",
			Help: "Total number of invite redemption attempts",
		},
		[]string{"path", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hearth_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
