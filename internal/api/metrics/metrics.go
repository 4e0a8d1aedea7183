// Package metrics defines and registers all custom Prometheus metrics for the
// insight-edge gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init, so
// importing any user of this package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insight_edge"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsCreatedTotal counts successful logins.
// Label:
//   - provider: identity provider mode that authenticated the viewer
//     (e.g. "local", "remote")
var SessionsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of edge sessions established.",
	},
	[]string{"provider"},
)

// AuthFailuresTotal counts rejected authentication attempts and invalid
// session presentations.
// Label:
//   - reason: "bad_credentials", "session_not_found", "session_expired"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of failed authentication attempts.",
	},
	[]string{"reason"},
)

// ForcedLogoutsTotal counts sessions destroyed because the backend rejected
// their credential.
// Label:
//   - status: HTTP status that triggered the invalidation ("401" or "403")
var ForcedLogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_logouts_total",
		Help:      "Total number of sessions invalidated by a backend auth failure.",
	},
	[]string{"status"},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts access gate evaluations by requirement and outcome.
// Labels:
//   - requirement: "authenticated", "staff", "admin"
//   - outcome: "allow", "redirect_login", "forbidden", "pending"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access gate decisions, by requirement and outcome.",
	},
	[]string{"requirement", "outcome"},
)

// ── Role resolution metrics ───────────────────────────────────────────────────

// RoleCacheTotal counts role cache lookups.
// Label:
//   - result: "hit", "miss", "error"
var RoleCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_total",
		Help:      "Total number of role cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Backend client metrics ────────────────────────────────────────────────────

// BackendRequestDuration measures outbound backend call latency.
// Labels:
//   - method: HTTP method
//   - status_class: "2xx", "4xx", "5xx", or "error" when no response arrived
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of outbound requests to the backend API.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "status_class"},
)
