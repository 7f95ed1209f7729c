package insight

import (
	"context"
	"fmt"

	"github.com/focusforge/focusforge/internal/domain"
)

// RuleProvider derives insights from fixed thresholds on the summary. It
// needs no network and never fails; it serves when no AI provider is
// configured.
type RuleProvider struct{}

// Insights implements domain.InsightProvider.
func (RuleProvider) Insights(_ context.Context, s domain.FocusSummary) (domain.Insight, error) {
	if s.Sessions == 0 {
		out := domain.FallbackInsight()
		out.Summary = "No focus sessions in this period yet. Start with a short one today."
		out.Source = "rules"
		return out, nil
	}

	in := domain.Insight{
		Summary: fmt.Sprintf("%d sessions, %.0f minutes focused, average score %.0f%%.",
			s.Sessions, s.TotalMinutes, s.AvgScore),
		Source: "rules",
	}

	if s.AvgScore >= 85 {
		in.Strengths = append(in.Strengths, "Your focus quality is excellent.")
	}
	if s.CurrentStreak >= 3 {
		in.Strengths = append(in.Strengths, fmt.Sprintf("You are on a %d-day streak.", s.CurrentStreak))
	}
	if s.Trend >= 5 {
		in.Strengths = append(in.Strengths, "Your focus scores are trending up.")
	}
	if s.BestHour >= 0 {
		in.Suggestions = append(in.Suggestions, fmt.Sprintf("You focus best around %02d:00. Schedule deep work then.", s.BestHour))
	}
	if s.Trend <= -5 {
		in.Suggestions = append(in.Suggestions, "Scores are slipping. Try shorter sessions with a break in between.")
	}
	if s.AvgScore < 70 {
		in.Suggestions = append(in.Suggestions, "Remove one distraction before each session.")
	}

	// Shorter sessions when quality drops, longer when it holds.
	switch {
	case s.AvgScore >= 85 && s.AvgSessionMins >= 25:
		in.RecommendedSessionMinutes = int(min(s.AvgSessionMins+10, 90))
	case s.AvgScore < 70:
		in.RecommendedSessionMinutes = 20
	default:
		in.RecommendedSessionMinutes = 25
	}
	return in, nil
}
