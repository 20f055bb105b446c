// Package metrics defines and registers all custom Prometheus metrics for the
// agent onboarding API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agent_onboarding"

// ── Registration metrics ──────────────────────────────────────────────────────

// RegistrationsInitializedTotal counts newly initialized agent registrations.
var RegistrationsInitializedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_initialized_total",
		Help:      "Total number of agent registrations initialized.",
	},
)

// RegistrationStepsTotal counts completed registration steps.
// Label:
//   - step: "profile", "bio", or "kyc"
var RegistrationStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_steps_total",
		Help:      "Total number of completed registration steps, by step.",
	},
	[]string{"step"},
)

// AgentsModeratedTotal counts admin moderation decisions.
// Label:
//   - decision: "approved" or "rejected"
var AgentsModeratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agents_moderated_total",
		Help:      "Total number of admin approve/reject decisions, by decision.",
	},
	[]string{"decision"},
)

// ── KYC verification metrics ──────────────────────────────────────────────────

// KycVerificationsTotal counts automatic provider verification attempts.
// Label:
//   - outcome: "verified", "pending", "rejected", or "error"
var KycVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kyc_verifications_total",
		Help:      "Total number of automatic KYC verification attempts, by outcome.",
	},
	[]string{"outcome"},
)

// KycVerificationDuration measures how long a provider verification call takes.
var KycVerificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "kyc_verification_duration_seconds",
		Help:      "Duration of KYC provider verification calls.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationFailuresTotal counts notification deliveries that failed.
// Label:
//   - kind: "kyc_uploaded", "registration_submitted", "approval", "rejection", "login_otp"
var NotificationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of failed notification deliveries, by kind.",
	},
	[]string{"kind"},
)

// NotificationQueueDepth tracks pending deliveries in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
