package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
)

// ─── Quests ─────────────────────────────────────────────────────────────────

// Quests returns a user's open quests, generating the current day's and
// week's quests when none exist yet.
func (s *Service) Quests(ctx context.Context, userID string) ([]domain.Quest, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.now()
	var quests, gen []domain.Quest
	err := s.db.InTx(ctx, func(tx *sqlite.DB) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		quests, gen, err = s.ensureQuests(ctx, tx, userID, gamification.EffectiveStreak(user.Streak, now), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, q := range gen {
		metrics.QuestsGenerated.WithLabelValues(string(q.Type)).Inc()
	}
	return quests, nil
}

// ensureQuests generates a quest type only when the user holds no
// unexpired quest of that type, whatever its status. Returns the open
// quests and the ones generated.
func (s *Service) ensureQuests(ctx context.Context, tx *sqlite.DB, userID string, streakDays int, now time.Time) ([]domain.Quest, []domain.Quest, error) {
	open, err := tx.ListQuests(ctx, userID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("list quests: %w", err)
	}

	var candidates []domain.Quest
	if !gamification.HasUnexpired(open, domain.QuestDaily, now) {
		candidates = append(candidates, gamification.GenerateDaily(now, streakDays)...)
	}
	if !gamification.HasUnexpired(open, domain.QuestWeekly, now) {
		candidates = append(candidates, gamification.GenerateWeekly(now)...)
	}
	if len(candidates) == 0 {
		return open, nil, nil
	}

	var generated []domain.Quest
	for _, q := range candidates {
		q.UserID = userID
		inserted, err := tx.InsertQuest(ctx, q)
		if err != nil {
			return nil, nil, fmt.Errorf("insert quest %s: %w", q.ID, err)
		}
		if inserted {
			generated = append(generated, q)
		}
	}

	open, err = tx.ListQuests(ctx, userID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("list quests: %w", err)
	}
	return open, generated, nil
}

// measure computes the current value of a quest's first condition from
// persisted activity inside the quest window.
func (s *Service) measure(ctx context.Context, tx *sqlite.DB, q domain.Quest, streakDays int) (float64, error) {
	c := q.Conditions[0]
	// The window end is inclusive, matching Quest.Expired.
	from, to := q.StartDate, q.EndDate.Add(time.Millisecond)

	switch c.Type {
	case domain.ConditionFocusTime:
		w, err := tx.SessionWindow(ctx, q.UserID, from, to, 0)
		if err != nil {
			return 0, fmt.Errorf("measure %s: %w", q.ID, err)
		}
		return w.FocusMinutes(), nil
	case domain.ConditionCustom:
		w, err := tx.SessionWindow(ctx, q.UserID, from, to, 0)
		if err != nil {
			return 0, fmt.Errorf("measure %s: %w", q.ID, err)
		}
		return w.AvgScore, nil
	case domain.ConditionChallenges:
		w, err := tx.SessionWindow(ctx, q.UserID, from, to, c.MinScore)
		if err != nil {
			return 0, fmt.Errorf("measure %s: %w", q.ID, err)
		}
		return float64(w.AtLeast), nil
	case domain.ConditionCollaboration:
		n, err := tx.TeamChallengesBetween(ctx, q.UserID, from, to)
		if err != nil {
			return 0, fmt.Errorf("measure %s: %w", q.ID, err)
		}
		return float64(n), nil
	case domain.ConditionStreak:
		return float64(streakDays), nil
	}
	return c.Current, nil
}
