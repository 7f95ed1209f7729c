package gamification

import (
	"math"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Level Curve ────────────────────────────────────────────────────────────
// XP needed to leave level L is round(XPPerLevel * LevelMultiplier^(L-1)):
// 1000, 1500, 2250, 3375, 5063, ... Thresholds are cumulative.

const (
	// XPPerLevel is the XP needed to leave level 1.
	XPPerLevel = 1000
	// LevelMultiplier grows each level's requirement.
	LevelMultiplier = 1.5
	// CoinsPerLevel is multiplied by the current level for the level-up reward.
	CoinsPerLevel = 100
)

// milestonePowerUps maps the level being entered to the power-up granted.
var milestonePowerUps = map[int]string{
	5:  "xp_boost_small",
	10: "coin_boost_small",
	15: "xp_boost_large",
	20: "coin_boost_large",
	25: "all_boost",
}

// XPForLevel returns the XP span of a single level (not cumulative). Spans
// that do not fit in an int64 saturate at math.MaxInt64.
func XPForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	span := math.Round(XPPerLevel * math.Pow(LevelMultiplier, float64(level-1)))
	if span >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(span)
}

// ComputeLevelInfo derives level and progress from lifetime XP.
// Negative XP is treated as zero.
func ComputeLevelInfo(totalXP int64) domain.LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}

	level := 1
	next := XPForLevel(level)
	var accumulated int64
	// accumulated never exceeds totalXP, so the remainder cannot overflow.
	for totalXP-accumulated >= next {
		accumulated += next
		level++
		next = XPForLevel(level)
	}

	current := totalXP - accumulated
	return domain.LevelInfo{
		Level:           level,
		CurrentXP:       current,
		RequiredXP:      next,
		ProgressPercent: float64(current) / float64(next) * 100,
		NextLevelReward: LevelReward(level),
	}
}

// LevelReward is what a user at level receives when reaching level+1.
func LevelReward(level int) domain.LevelReward {
	if level < 1 {
		level = 1
	}
	return domain.LevelReward{
		Coins:     int64(level) * CoinsPerLevel,
		PowerUpID: milestonePowerUps[level+1],
	}
}

// LevelUpRewards sums the rewards for every level crossed going from
// oldLevel to newLevel, returning coins and granted power-up ids in order.
func LevelUpRewards(oldLevel, newLevel int) (int64, []string) {
	var coins int64
	var powerUps []string
	for l := oldLevel; l < newLevel; l++ {
		r := LevelReward(l)
		coins += r.Coins
		if r.PowerUpID != "" {
			powerUps = append(powerUps, r.PowerUpID)
		}
	}
	return coins, powerUps
}

// MilestoneLevels returns the milestone levels in ascending order.
func MilestoneLevels() []int {
	return []int{5, 10, 15, 20, 25}
}
