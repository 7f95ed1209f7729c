package gamification

import (
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Achievement Catalog ────────────────────────────────────────────────────
// Stat-based predicates checked against a UserStats snapshot. Entries with
// a nil predicate are only granted through quest rewards.

var achievementCatalog = []domain.AchievementDef{
	{
		ID: "first_focus", Name: "First Focus", Description: "Complete your first focus session",
		Icon:      "🎯",
		Reward:    domain.AchievementReward{XP: 25},
		Predicate: func(s domain.UserStats) bool { return s.SessionsCompleted >= 1 },
	},
	{
		ID: "focus_master", Name: "Focus Master", Description: "Focus for a total of one hour",
		Icon:      "🧠",
		Reward:    domain.AchievementReward{XP: 100, Badge: "Focus Master"},
		Predicate: func(s domain.UserStats) bool { return s.TotalFocusSeconds >= 3600 },
	},
	{
		ID: "streak_warrior", Name: "Streak Warrior", Description: "Keep a 7-day focus streak",
		Icon:      "🔥",
		Reward:    domain.AchievementReward{XP: 200, Title: "Streak Warrior"},
		Predicate: func(s domain.UserStats) bool { return s.WeeklyStreak >= 7 },
	},
	{
		ID: "perfectionist", Name: "Perfectionist", Description: "Score 95% or better in a single session",
		Icon:      "💎",
		Reward:    domain.AchievementReward{XP: 150, Badge: "Perfectionist"},
		Predicate: func(s domain.UserStats) bool { return s.BestFocusScore >= 95 },
	},
	{
		ID: "marathoner", Name: "Marathoner", Description: "Complete a 90-minute session",
		Icon:      "🏃",
		Reward:    domain.AchievementReward{XP: 200, Badge: "Marathoner"},
		Predicate: func(s domain.UserStats) bool { return s.LongestSessionSeconds >= 5400 },
	},
	{
		ID: "team_player", Name: "Team Player", Description: "Complete 3 team challenges",
		Icon:      "🤝",
		Reward:    domain.AchievementReward{XP: 150, Title: "Team Player"},
		Predicate: func(s domain.UserStats) bool { return s.TeamChallenges >= 3 },
	},
	{
		ID: "elite_focus", Name: "Elite", Description: "Finish the Elite Focus daily quest",
		Icon:   "⚡",
		Reward: domain.AchievementReward{XP: 100, Badge: "Elite"},
	},
	{
		ID: "level_10", Name: "Rising Star", Description: "Reach level 10",
		Icon:      "🌟",
		Reward:    domain.AchievementReward{XP: 300, Title: "Rising Star"},
		Predicate: func(s domain.UserStats) bool { return s.Level >= 10 },
	},
}

// Achievements returns a copy of the catalog.
func Achievements() []domain.AchievementDef {
	out := make([]domain.AchievementDef, len(achievementCatalog))
	copy(out, achievementCatalog)
	return out
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id string) (domain.AchievementDef, bool) {
	for _, def := range achievementCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return domain.AchievementDef{}, false
}

// Evaluate returns achievements newly unlocked by stats, in catalog order.
// Ids already in unlocked are skipped, so re-evaluation is a no-op.
func Evaluate(stats domain.UserStats, unlocked map[string]bool, now time.Time) []domain.Achievement {
	var out []domain.Achievement
	for _, def := range achievementCatalog {
		if unlocked[def.ID] || def.Predicate == nil || !def.Predicate(stats) {
			continue
		}
		out = append(out, Unlock(def, now))
	}
	return out
}

// Unlock builds the unlocked record for def.
func Unlock(def domain.AchievementDef, now time.Time) domain.Achievement {
	return domain.Achievement{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Icon:        def.Icon,
		Reward:      def.Reward,
		UnlockedAt:  now,
	}
}
