package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
)

// ─── Session Completion ─────────────────────────────────────────────────────

// CompleteSession turns a finished focus session into rewards, quest
// progress, achievements, level-ups and notifications. Everything is
// written in one transaction; on error nothing is persisted.
func (s *Service) CompleteSession(ctx context.Context, userID string, focusScore float64, durationSeconds int) (domain.SessionResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	start := time.Now()
	now := s.now()

	var res domain.SessionResult
	var gen []domain.Quest
	err := s.db.InTx(ctx, func(tx *sqlite.DB) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		active, err := s.activePowerUps(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		// The streak counts today's session before the bonus is applied.
		streak := gamification.AdvanceStreak(user.Streak, now)
		reward := gamification.ComputeReward(focusScore, durationSeconds, streak.CurrentDays, active)

		session := domain.FocusSession{
			ID:              uuid.NewString(),
			UserID:          userID,
			FocusScore:      focusScore,
			DurationSeconds: durationSeconds,
			XP:              reward.XP,
			Coins:           reward.Coins,
			CompletedAt:     now,
		}
		if err := tx.InsertSession(ctx, session); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if reward.Coins > 0 {
			if err := s.wallet.With(tx).Earn(ctx, userID, reward.Coins, domain.TxSessionReward, session.ID, "focus session"); err != nil {
				return fmt.Errorf("credit session coins: %w", err)
			}
		}

		update, generated, err := s.settle(ctx, tx, user, streak, reward.XP, now)
		if err != nil {
			return err
		}
		gen = generated
		res = domain.SessionResult{
			Session:        session,
			Reward:         reward,
			ActivePowerUps: active,
			ProgressUpdate: update,
		}
		return nil
	})
	if err != nil {
		return domain.SessionResult{}, err
	}

	metrics.SessionsCompleted.Inc()
	metrics.SessionFocusScore.Observe(res.Session.FocusScore)
	metrics.XPAwarded.WithLabelValues("session").Add(float64(res.Reward.XP))
	metrics.CoinsAwarded.WithLabelValues("session").Add(float64(res.Reward.Coins))
	s.recordProgressMetrics(res.ProgressUpdate, gen)
	metrics.CompletionLatency.Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("user", userID).
		Str("session", res.Session.ID).
		Float64("score", res.Session.FocusScore).
		Int("duration", res.Session.DurationSeconds).
		Int64("xp", res.Reward.XP).
		Int64("coins", res.Reward.Coins).
		Int64("bonus_xp", res.BonusReward.XP).
		Int("level", res.Level.Level).
		Msg("session completed")
	return res, nil
}

// ─── Team Challenges ────────────────────────────────────────────────────────

// RecordTeamChallenge stores a completed team challenge and applies the
// resulting collaboration quest progress and achievements.
func (s *Service) RecordTeamChallenge(ctx context.Context, userID, team string) (domain.ProgressUpdate, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.now()

	var update domain.ProgressUpdate
	var gen []domain.Quest
	err := s.db.InTx(ctx, func(tx *sqlite.DB) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.InsertTeamChallenge(ctx, uuid.NewString(), userID, team, now); err != nil {
			return fmt.Errorf("insert team challenge: %w", err)
		}
		update, gen, err = s.settle(ctx, tx, user, user.Streak, 0, now)
		return err
	})
	if err != nil {
		return domain.ProgressUpdate{}, err
	}

	s.recordProgressMetrics(update, gen)
	s.log.Info().Str("user", userID).Str("team", team).
		Int("quests_completed", len(update.CompletedQuests)).
		Msg("team challenge recorded")
	return update, nil
}

// ─── Settlement ─────────────────────────────────────────────────────────────

// settle applies quest progress, achievements and level-up rewards for a
// user who just earned earnedXP, then stores XP and streak. Returns the
// update plus any quests generated on the way.
func (s *Service) settle(ctx context.Context, tx *sqlite.DB, user domain.User, streak domain.Streak, earnedXP int64, now time.Time) (domain.ProgressUpdate, []domain.Quest, error) {
	var (
		bonus         domain.Reward
		questCoins    int64
		completed     []domain.Quest
		unlocked      []domain.Achievement
		notifications []domain.Notification
	)

	days := gamification.EffectiveStreak(streak, now)
	quests, generated, err := s.ensureQuests(ctx, tx, user.ID, days, now)
	if err != nil {
		return domain.ProgressUpdate{}, nil, err
	}

	unlockedIDs, err := tx.UnlockedAchievements(ctx, user.ID)
	if err != nil {
		return domain.ProgressUpdate{}, nil, fmt.Errorf("load achievements: %w", err)
	}
	seen := make(map[string]bool, len(unlockedIDs))
	for id := range unlockedIDs {
		seen[id] = true
	}

	// Quests
	for _, q := range quests {
		if q.Status != domain.QuestActive || q.Expired(now) || len(q.Conditions) == 0 {
			continue
		}
		current, err := s.measure(ctx, tx, q, days)
		if err != nil {
			return domain.ProgressUpdate{}, nil, err
		}
		if current == q.Conditions[0].Current {
			continue
		}
		progress, err := gamification.ApplyProgress(q, current)
		if err != nil {
			return domain.ProgressUpdate{}, nil, err
		}
		if err := tx.UpdateQuest(ctx, progress.Quest); err != nil {
			return domain.ProgressUpdate{}, nil, fmt.Errorf("update quest: %w", err)
		}
		if !progress.JustCompleted {
			continue
		}

		done := progress.Quest
		completed = append(completed, done)
		bonus.XP += done.Rewards.XP
		questCoins += done.Rewards.Coins
		notifications = append(notifications, questNotification(user.ID, done, now))

		if id := done.Rewards.Achievement; id != "" && !seen[id] {
			if def, ok := gamification.AchievementByID(id); ok {
				a, err := s.grantAchievement(ctx, tx, user.ID, def, now)
				if err != nil {
					return domain.ProgressUpdate{}, nil, err
				}
				seen[id] = true
				unlocked = append(unlocked, a)
				bonus.XP += a.Reward.XP
			}
		}
	}

	// Achievements see the XP earned so far, before their own rewards.
	stats, err := tx.LifetimeStats(ctx, user.ID)
	if err != nil {
		return domain.ProgressUpdate{}, nil, fmt.Errorf("load stats: %w", err)
	}
	stats.WeeklyStreak = days
	stats.Level = gamification.ComputeLevelInfo(user.TotalXP + earnedXP + bonus.XP).Level

	for _, a := range gamification.Evaluate(stats, seen, now) {
		def, _ := gamification.AchievementByID(a.ID)
		ach, err := s.grantAchievement(ctx, tx, user.ID, def, now)
		if err != nil {
			return domain.ProgressUpdate{}, nil, err
		}
		seen[a.ID] = true
		unlocked = append(unlocked, ach)
		bonus.XP += ach.Reward.XP
	}
	for _, a := range unlocked {
		notifications = append(notifications, achievementNotification(user.ID, a, now))
	}

	// Levels
	before := gamification.ComputeLevelInfo(user.TotalXP)
	totalXP := user.TotalXP + earnedXP + bonus.XP
	after := gamification.ComputeLevelInfo(totalXP)

	var levelCoins int64
	var granted []string
	if after.Level > before.Level {
		levelCoins, granted = gamification.LevelUpRewards(before.Level, after.Level)
		for _, id := range granted {
			if err := tx.AddInventory(ctx, user.ID, domain.InventoryPowerUp, id, 1); err != nil {
				return domain.ProgressUpdate{}, nil, fmt.Errorf("grant milestone power-up: %w", err)
			}
		}
		notifications = append(notifications, levelUpNotification(user.ID, after, now))
	}

	w := s.wallet.With(tx)
	if questCoins > 0 {
		if err := w.Earn(ctx, user.ID, questCoins, domain.TxQuestReward, "", "quest rewards"); err != nil {
			return domain.ProgressUpdate{}, nil, fmt.Errorf("credit quest coins: %w", err)
		}
	}
	if levelCoins > 0 {
		ref := fmt.Sprintf("level-%d", after.Level)
		if err := w.Earn(ctx, user.ID, levelCoins, domain.TxLevelUp, ref, "level up"); err != nil {
			return domain.ProgressUpdate{}, nil, fmt.Errorf("credit level coins: %w", err)
		}
	}
	bonus.Coins = questCoins + levelCoins

	if err := tx.UpdateUserProgress(ctx, user.ID, totalXP, streak); err != nil {
		return domain.ProgressUpdate{}, nil, fmt.Errorf("store progress: %w", err)
	}

	delivered, err := s.notifier.With(tx).deliver(ctx, notifications)
	if err != nil {
		return domain.ProgressUpdate{}, nil, err
	}

	balance, err := w.Balance(ctx, user.ID)
	if err != nil {
		return domain.ProgressUpdate{}, nil, fmt.Errorf("balance: %w", err)
	}

	return domain.ProgressUpdate{
		BonusReward:          bonus,
		TotalXP:              totalXP,
		Coins:                balance,
		Level:                after,
		LeveledUp:            after.Level > before.Level,
		LevelsGained:         after.Level - before.Level,
		Streak:               streak,
		CompletedQuests:      completed,
		UnlockedAchievements: unlocked,
		GrantedPowerUps:      granted,
		Notifications:        delivered,
	}, generated, nil
}

// grantAchievement records def as unlocked and stores its badge or title.
func (s *Service) grantAchievement(ctx context.Context, tx *sqlite.DB, userID string, def domain.AchievementDef, now time.Time) (domain.Achievement, error) {
	if _, err := tx.UnlockAchievement(ctx, userID, def.ID, now); err != nil {
		return domain.Achievement{}, fmt.Errorf("unlock %s: %w", def.ID, err)
	}
	if def.Reward.Badge != "" {
		if err := tx.AddInventory(ctx, userID, domain.InventoryBadge, def.Reward.Badge, 1); err != nil {
			return domain.Achievement{}, fmt.Errorf("grant badge: %w", err)
		}
	}
	if def.Reward.Title != "" {
		if err := tx.AddInventory(ctx, userID, domain.InventoryTitle, def.Reward.Title, 1); err != nil {
			return domain.Achievement{}, fmt.Errorf("grant title: %w", err)
		}
	}
	return gamification.Unlock(def, now), nil
}

func (s *Service) recordProgressMetrics(u domain.ProgressUpdate, generated []domain.Quest) {
	for _, q := range generated {
		metrics.QuestsGenerated.WithLabelValues(string(q.Type)).Inc()
	}
	for _, q := range u.CompletedQuests {
		metrics.QuestsCompleted.WithLabelValues(string(q.Type)).Inc()
	}
	for _, a := range u.UnlockedAchievements {
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
	}
	if u.LevelsGained > 0 {
		metrics.LevelUps.Add(float64(u.LevelsGained))
		s.log.Info().Int("level", u.Level.Level).Int("gained", u.LevelsGained).Msg("level up")
	}
	if u.BonusReward.XP > 0 {
		metrics.XPAwarded.WithLabelValues("bonus").Add(float64(u.BonusReward.XP))
	}
	if u.BonusReward.Coins > 0 {
		metrics.CoinsAwarded.WithLabelValues("bonus").Add(float64(u.BonusReward.Coins))
	}
}
