package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/app/analytics"
	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

// Report pairs the analytics summary with the insight derived from it.
type Report struct {
	Summary domain.FocusSummary `json:"summary"`
	Insight domain.Insight      `json:"insight"`
}

// ServiceOptions configures a Service. Zero values fall back to defaults.
type ServiceOptions struct {
	Window time.Duration
	Logger *zerolog.Logger
	Now    func() time.Time
}

// Service builds insight reports from stored sessions.
type Service struct {
	db       *sqlite.DB
	provider domain.InsightProvider
	window   time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates an insight service. A nil provider always yields the
// fallback insight.
func NewService(db *sqlite.DB, provider domain.InsightProvider, opts ServiceOptions) *Service {
	if opts.Window <= 0 {
		opts.Window = analytics.DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logging.Component("insight")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Service{db: db, provider: provider, window: opts.Window, log: log, now: opts.Now}
}

// Report summarizes the user's sessions over the window ending now and asks
// the provider for an insight. Provider failures are logged and replaced by
// domain.FallbackInsight; only store errors are returned.
func (s *Service) Report(ctx context.Context, userID string) (Report, error) {
	now := s.now()
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	from := now.Add(-s.window)
	sessions, err := s.db.SessionsBetween(ctx, userID, from, now.Add(time.Millisecond))
	if err != nil {
		return Report{}, fmt.Errorf("load sessions: %w", err)
	}

	summary := analytics.Summarize(userID, sessions, from, now.Add(time.Millisecond))
	summary.To = now
	summary.CurrentStreak = gamification.EffectiveStreak(user.Streak, now)
	summary.Level = gamification.ComputeLevelInfo(user.TotalXP).Level

	return Report{Summary: summary, Insight: s.insight(ctx, summary)}, nil
}

func (s *Service) insight(ctx context.Context, summary domain.FocusSummary) domain.Insight {
	if s.provider == nil {
		metrics.InsightRequests.WithLabelValues("fallback").Inc()
		return domain.FallbackInsight()
	}

	in, err := s.provider.Insights(ctx, summary)
	if err != nil {
		s.log.Warn().Err(err).Str("user", summary.UserID).Msg("insight provider failed, using fallback")
		metrics.InsightRequests.WithLabelValues("fallback").Inc()
		return domain.FallbackInsight()
	}
	metrics.InsightRequests.WithLabelValues(in.Source).Inc()
	return in
}
