// Package gamification is the pure reward & leveling engine.
// Rewards, levels, power-ups, quests, achievements and streaks are plain
// functions over values: no I/O, no clocks, no locks. Callers pass "now".
package gamification

import (
	"math"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Reward Formula ─────────────────────────────────────────────────────────
// reward = base(score, minutes) * streak bonus + quality + duration, then
// power-ups applied one by one in slice order.

const (
	// XPPerMinute is the base XP rate at a perfect focus score.
	XPPerMinute = 10.0
	// CoinsPerMinute is the base coin rate at a perfect focus score.
	CoinsPerMinute = 5.0

	// StreakBonusPerDay is the bonus fraction added per streak day.
	StreakBonusPerDay = 0.10
	// MaxStreakBonus caps the streak bonus fraction (+50%).
	MaxStreakBonus = 0.50
)

type flatBonus struct {
	threshold float64
	reward    domain.Reward
}

// Evaluated high-to-low; first match wins.
var (
	qualityBonuses = []flatBonus{
		{threshold: 95, reward: domain.Reward{XP: 50, Coins: 25}},
		{threshold: 85, reward: domain.Reward{XP: 25, Coins: 15}},
	}
	durationBonuses = []flatBonus{
		{threshold: 3600, reward: domain.Reward{XP: 100, Coins: 50}},
		{threshold: 1800, reward: domain.Reward{XP: 50, Coins: 25}},
	}
)

// ComputeReward converts a completed session into XP and coins.
// Inputs are clamped, never rejected: a reward computation must not abort a
// session completion. Expired power-ups must be filtered out by the caller.
func ComputeReward(focusScore float64, durationSeconds int, streakDays int, active []domain.ActivePowerUp) domain.Reward {
	score := clampScore(focusScore)
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if streakDays < 0 {
		streakDays = 0
	}

	minutes := float64(durationSeconds) / 60.0
	xp := math.Round(score / 100 * minutes * XPPerMinute)
	coins := math.Round(score / 100 * minutes * CoinsPerMinute)

	bonus := StreakBonus(streakDays)
	xp = math.Round(xp * (1 + bonus))
	coins = math.Round(coins * (1 + bonus))

	if b, ok := firstBonus(qualityBonuses, score); ok {
		xp += float64(b.XP)
		coins += float64(b.Coins)
	}
	if b, ok := firstBonus(durationBonuses, float64(durationSeconds)); ok {
		xp += float64(b.XP)
		coins += float64(b.Coins)
	}

	// Sequential compounding: order changes the result when several are active.
	for _, p := range active {
		m := p.Multiplier
		if math.IsNaN(m) || m < 0 {
			continue
		}
		if p.Kind.BoostsXP() {
			xp = math.Round(xp * m)
		}
		if p.Kind.BoostsCoins() {
			coins = math.Round(coins * m)
		}
	}

	return domain.Reward{XP: nonNegative(xp), Coins: nonNegative(coins)}
}

// StreakBonus returns the bonus fraction for a streak, capped at +50%.
func StreakBonus(streakDays int) float64 {
	if streakDays <= 0 {
		return 0
	}
	return math.Min(float64(streakDays)*StreakBonusPerDay, MaxStreakBonus)
}

func firstBonus(table []flatBonus, v float64) (domain.Reward, bool) {
	for _, b := range table {
		if v >= b.threshold {
			return b.reward, true
		}
	}
	return domain.Reward{}, false
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}

func nonNegative(v float64) int64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
