// Package metrics defines and registers all custom Prometheus metrics for the
// QR service. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init via
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qr"

// ── Issuance metrics ──────────────────────────────────────────────────────────

// CodesIssuedTotal counts successful issuances.
// Label:
//   - tier: the plan applied to the request (e.g. "free")
var CodesIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "codes_issued_total",
		Help:      "Total number of QR codes issued, by plan tier.",
	},
	[]string{"tier"},
)

// LimitExceededTotal counts requests refused by the plan quota.
var LimitExceededTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "limit_exceeded_total",
		Help:      "Total number of generation requests refused because the quota was used up.",
	},
	[]string{"tier"},
)

// EmailDeliveriesTotal counts email gate outcomes.
// Label:
//   - result: "sent", "blocked" or "failed"
var EmailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_deliveries_total",
		Help:      "Total number of email gate outcomes for issued codes.",
	},
	[]string{"result"},
)

// IdempotentReplaysTotal counts requests answered from the idempotency store.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of generation requests replayed from a previous result.",
	},
)

// DownloadsTotal counts image downloads.
var DownloadsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Total number of QR image downloads.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts registered accounts.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of registered accounts.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SubscriptionChangesTotal counts plan changes.
// Label:
//   - tier: the plan subscribed to
var SubscriptionChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_changes_total",
		Help:      "Total number of subscription changes, by target tier.",
	},
	[]string{"tier"},
)
