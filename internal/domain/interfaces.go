package domain

import (
	"context"
	"time"
)

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// InsightProvider synthesizes human-readable insights from focus analytics.
// Best effort: implementations return ErrInsightUnavailable or
// ErrInsightMalformed and callers substitute a fixed fallback.
type InsightProvider interface {
	Insights(ctx context.Context, summary FocusSummary) (Insight, error)
}

// ─── Analytics & Insight Types ──────────────────────────────────────────────

// DailyFocus is one day of aggregated focus.
type DailyFocus struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Sessions     int     `json:"sessions"`
	FocusMinutes float64 `json:"focus_minutes"`
	AvgScore     float64 `json:"avg_score"`
}

// FocusSummary aggregates a window of sessions for one user.
type FocusSummary struct {
	UserID         string       `json:"user_id"`
	From           time.Time    `json:"from"`
	To             time.Time    `json:"to"`
	Sessions       int          `json:"sessions"`
	TotalMinutes   float64      `json:"total_minutes"`
	AvgScore       float64      `json:"avg_score"`
	BestScore      float64      `json:"best_score"`
	AvgSessionMins float64      `json:"avg_session_minutes"`
	BestHour       int          `json:"best_hour"` // -1 when no sessions
	Trend          float64      `json:"trend"`     // avg score delta, second half minus first half
	Days           []DailyFocus `json:"days"`
	CurrentStreak  int          `json:"current_streak"`
	Level          int          `json:"level"`
}

// Insight is the provider's best-effort output.
type Insight struct {
	Summary                   string   `json:"summary"`
	Strengths                 []string `json:"strengths"`
	Suggestions               []string `json:"suggestions"`
	RecommendedSessionMinutes int      `json:"recommended_session_minutes"`
	Source                    string   `json:"source"` // "ai" or "fallback"
}

// FallbackInsight is the fixed payload substituted when a provider fails.
func FallbackInsight() Insight {
	return Insight{
		Summary:                   "Keep building your focus habit. Consistency beats intensity.",
		Strengths:                 []string{"You are tracking your focus sessions."},
		Suggestions:               []string{"Try a 25-minute session followed by a 5-minute break.", "Silence notifications before you start."},
		RecommendedSessionMinutes: 25,
		Source:                    "fallback",
	}
}
