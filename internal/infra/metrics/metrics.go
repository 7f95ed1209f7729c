// Package metrics provides Prometheus metrics for FocusForge.
// Counters, gauges and histograms for sessions, rewards, quests,
// achievements, power-ups, insights, HTTP and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "focusforge"

// ─── Sessions & Rewards ─────────────────────────────────────────────────────

// SessionsCompleted counts completed focus sessions.
var SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "sessions_completed_total",
	Help:      "Total completed focus sessions.",
})

// SessionFocusScore tracks the distribution of session focus scores.
var SessionFocusScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "session_focus_score",
	Help:      "Focus score of completed sessions (0-100).",
	Buckets:   []float64{10, 25, 50, 70, 80, 85, 90, 95, 100},
})

// XPAwarded counts XP granted by source (session, quest, achievement).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded by source.",
}, []string{"source"})

// CoinsAwarded counts coins granted by source (session, quest, level_up).
var CoinsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "coins_awarded_total",
	Help:      "Total coins awarded by source.",
}, []string{"source"})

// LevelUps counts levels gained across all users.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "level_ups_total",
	Help:      "Total levels gained.",
})

// CompletionLatency tracks the duration of a session completion, including
// the persistence transaction.
var CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "session_completion_seconds",
	Help:      "Session completion duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// ─── Quests & Achievements ──────────────────────────────────────────────────

// QuestsGenerated counts generated quests by type.
var QuestsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quests_generated_total",
	Help:      "Total quests generated by type.",
}, []string{"type"})

// QuestsCompleted counts completed quests by type.
var QuestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quests_completed_total",
	Help:      "Total quests completed by type.",
}, []string{"type"})

// QuestsFailed counts quests that expired while active.
var QuestsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quests_failed_total",
	Help:      "Total quests expired before completion.",
})

// AchievementsUnlocked counts unlocks by achievement id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked by id.",
}, []string{"achievement"})

// ─── Power-Ups ──────────────────────────────────────────────────────────────

// PowerUpsPurchased counts purchases by power-up id.
var PowerUpsPurchased = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "powerups_purchased_total",
	Help:      "Total power-ups purchased by id.",
}, []string{"powerup"})

// PowerUpsActivated counts activations by power-up id.
var PowerUpsActivated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "powerups_activated_total",
	Help:      "Total power-ups activated by id.",
}, []string{"powerup"})

// PowerUpsExpired counts expired instances removed by the janitor.
var PowerUpsExpired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "powerups_expired_total",
	Help:      "Total expired power-up instances removed.",
})

// ─── Users & Notifications ──────────────────────────────────────────────────

// UsersRegistered tracks the number of registered users.
var UsersRegistered = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "users_registered",
	Help:      "Number of registered users.",
})

// NotificationsSuppressed counts notifications dropped by policy.
var NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notifications_suppressed_total",
	Help:      "Notifications dropped by policy, by reason.",
}, []string{"reason"})

// ─── Insights ───────────────────────────────────────────────────────────────

// InsightRequests counts insight responses by source (ai, fallback).
var InsightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "insight_requests_total",
	Help:      "Insight responses by source.",
}, []string{"source"})

// InsightLatency tracks provider call duration.
var InsightLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "insight_latency_seconds",
	Help:      "Insight provider call duration in seconds.",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// InsightBreakerState tracks the provider circuit breaker (0=closed, 1=half-open, 2=open).
var InsightBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "insight_breaker_state",
	Help:      "Insight circuit breaker state (0=closed, 1=half-open, 2=open).",
})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequestDuration tracks API request duration.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// ─── Janitor ────────────────────────────────────────────────────────────────

// JanitorRuns counts scheduled housekeeping runs by outcome.
var JanitorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "janitor_runs_total",
	Help:      "Housekeeping runs by outcome.",
}, []string{"outcome"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
