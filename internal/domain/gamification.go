// Package domain holds the pure types shared by every FocusForge layer.
// Nothing in here performs I/O; the app and infra layers depend on it,
// never the other way around.
package domain

import "time"

// ─── Focus Sessions ─────────────────────────────────────────────────────────

// SessionOutcome is the input to a reward computation. Constructed once per
// completed session and consumed once.
type SessionOutcome struct {
	FocusScore      float64 `json:"focus_score"`      // 0–100
	DurationSeconds int     `json:"duration_seconds"` // ≥ 0
	StreakDays      int     `json:"streak_days"`      // ≥ 0
}

// FocusSession is a persisted, completed focus session.
type FocusSession struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	FocusScore      float64   `json:"focus_score"`
	DurationSeconds int       `json:"duration_seconds"`
	XP              int64     `json:"xp"`
	Coins           int64     `json:"coins"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Minutes returns the session length in (fractional) minutes.
func (s FocusSession) Minutes() float64 {
	return float64(s.DurationSeconds) / 60.0
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// Reward is an XP/coin bundle. Always non-negative integers.
type Reward struct {
	XP    int64 `json:"xp"`
	Coins int64 `json:"coins"`
}

// Add returns the sum of two rewards.
func (r Reward) Add(o Reward) Reward {
	return Reward{XP: r.XP + o.XP, Coins: r.Coins + o.Coins}
}

// IsZero reports whether the reward grants nothing.
func (r Reward) IsZero() bool {
	return r.XP == 0 && r.Coins == 0
}

// ─── Power-Ups ──────────────────────────────────────────────────────────────

// PowerUpKind selects which balance a power-up multiplies.
type PowerUpKind string

const (
	PowerUpXPBoost   PowerUpKind = "xp_boost"
	PowerUpCoinBoost PowerUpKind = "coin_boost"
	PowerUpAllBoost  PowerUpKind = "all_boost"
)

// BoostsXP reports whether the kind scales XP.
func (k PowerUpKind) BoostsXP() bool {
	return k == PowerUpXPBoost || k == PowerUpAllBoost
}

// BoostsCoins reports whether the kind scales coins.
func (k PowerUpKind) BoostsCoins() bool {
	return k == PowerUpCoinBoost || k == PowerUpAllBoost
}

// PowerUp is an immutable catalog entry.
type PowerUp struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Kind       PowerUpKind   `json:"kind"`
	Multiplier float64       `json:"multiplier"` // > 1
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
	Cost       int64         `json:"cost"`
}

// ActivePowerUp is a catalog snapshot plus its expiry. A new value is
// created on activation; the catalog entry is never touched.
type ActivePowerUp struct {
	PowerUp
	InstanceID int64     `json:"instance_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the instance is past its expiry at now.
func (a ActivePowerUp) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// ─── Levels ─────────────────────────────────────────────────────────────────

// LevelReward is granted when the user advances past the current level.
type LevelReward struct {
	Coins     int64  `json:"coins"`
	PowerUpID string `json:"power_up_id,omitempty"`
}

// LevelInfo is derived from lifetime XP. Recomputed on demand, never the
// source of truth.
type LevelInfo struct {
	Level           int         `json:"level"`
	CurrentXP       int64       `json:"current_xp"`
	RequiredXP      int64       `json:"required_xp"`
	ProgressPercent float64     `json:"progress_percent"`
	NextLevelReward LevelReward `json:"next_level_reward"`
}

// XPToNextLevel returns the XP still missing for the next level.
func (l LevelInfo) XPToNextLevel() int64 {
	if rem := l.RequiredXP - l.CurrentXP; rem > 0 {
		return rem
	}
	return 0
}

// ─── Streak ─────────────────────────────────────────────────────────────────

// Streak tracks consecutive days with at least one completed session.
type Streak struct {
	CurrentDays   int       `json:"current_days"`
	LongestDays   int       `json:"longest_days"`
	LastDate      time.Time `json:"last_date"`
	FreezeUsed    bool      `json:"freeze_used"`     // 1 free freeze per ISO week
	FreezeWeekISO string    `json:"freeze_week_iso"` // "2026-W42"
}

// ─── Quests ─────────────────────────────────────────────────────────────────

// QuestType is the cadence of a quest.
type QuestType string

const (
	QuestDaily  QuestType = "daily"
	QuestWeekly QuestType = "weekly"
)

// QuestDifficulty is informational only.
type QuestDifficulty string

const (
	DifficultyEasy   QuestDifficulty = "easy"
	DifficultyMedium QuestDifficulty = "medium"
	DifficultyHard   QuestDifficulty = "hard"
)

// QuestStatus is the quest lifecycle state.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// ConditionType says what a quest condition measures.
type ConditionType string

const (
	ConditionFocusTime     ConditionType = "focus_time"    // minutes focused in the quest window
	ConditionStreak        ConditionType = "streak"        // current streak days
	ConditionChallenges    ConditionType = "challenges"    // sessions scoring ≥ MinScore
	ConditionCollaboration ConditionType = "collaboration" // team challenges completed
	ConditionCustom        ConditionType = "custom"        // average focus score
)

// QuestCondition is one numeric goal of a quest.
type QuestCondition struct {
	Type     ConditionType `json:"type"`
	Target   float64       `json:"target"`
	Current  float64       `json:"current"`
	MinScore float64       `json:"min_score,omitempty"`
}

// QuestRewards is paid exactly once, on completion.
type QuestRewards struct {
	XP          int64  `json:"xp"`
	Coins       int64  `json:"coins"`
	Achievement string `json:"achievement,omitempty"`
}

// Quest is a time-boxed goal owned by one user.
// Only Conditions[0] is ever read or advanced.
type Quest struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        QuestType        `json:"type"`
	Difficulty  QuestDifficulty  `json:"difficulty"`
	Conditions  []QuestCondition `json:"conditions"`
	Rewards     QuestRewards     `json:"rewards"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Status      QuestStatus      `json:"status"`
}

// Expired reports whether the quest window has closed at now.
func (q Quest) Expired(now time.Time) bool {
	return q.EndDate.Before(now)
}

// ProgressPct returns completion percentage (0-100) of the first condition.
func (q Quest) ProgressPct() float64 {
	if len(q.Conditions) == 0 || q.Conditions[0].Target <= 0 {
		return 100.0
	}
	pct := q.Conditions[0].Current / q.Conditions[0].Target * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (q Quest) Clone() Quest {
	cp := q
	cp.Conditions = make([]QuestCondition, len(q.Conditions))
	copy(cp.Conditions, q.Conditions)
	return cp
}

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementReward is applied once, when the achievement unlocks.
type AchievementReward struct {
	XP    int64  `json:"xp"`
	Badge string `json:"badge,omitempty"`
	Title string `json:"title,omitempty"`
}

// AchievementDef is a catalog entry with its unlock predicate.
type AchievementDef struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	Reward      AchievementReward    `json:"reward"`
	Predicate   func(UserStats) bool `json:"-"` // nil = granted only by quests
}

// Achievement is an unlocked achievement. Append-only, one per id per user.
type Achievement struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Reward      AchievementReward `json:"reward"`
	UnlockedAt  time.Time         `json:"unlocked_at"`
}

// UserStats is the snapshot fed to achievement predicates.
type UserStats struct {
	TotalFocusSeconds     int64   `json:"total_focus_seconds"`
	WeeklyStreak          int     `json:"weekly_streak"`
	BestFocusScore        float64 `json:"best_focus_score"`
	SessionsCompleted     int64   `json:"sessions_completed"`
	LongestSessionSeconds int     `json:"longest_session_seconds"`
	TeamChallenges        int64   `json:"team_challenges"`
	Level                 int     `json:"level"`
}

// ─── Users & Inventory ──────────────────────────────────────────────────────

// User is the persisted per-user balance document.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TotalXP   int64     `json:"total_xp"`
	Coins     int64     `json:"coins"`
	Streak    Streak    `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
}

// InventoryKind categorizes inventory items.
type InventoryKind string

const (
	InventoryPowerUp InventoryKind = "powerup"
	InventoryBadge   InventoryKind = "badge"
	InventoryTitle   InventoryKind = "title"
)

// InventoryItem is a counted item a user owns.
type InventoryItem struct {
	Kind     InventoryKind `json:"kind"`
	ItemID   string        `json:"item_id"`
	Quantity int           `json:"quantity"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	TotalXP int64  `json:"total_xp"`
	Level   int    `json:"level"`
	Streak  int    `json:"streak"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement   NotificationType = "achievement"
	NotifyLevelUp       NotificationType = "level_up"
	NotifyQuestComplete NotificationType = "quest_complete"
	NotifyPowerUp       NotificationType = "power_up"
)

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how many notifications are persisted.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day"`
	QuietStart string `json:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end"`   // "08:00"
}

// DefaultNotificationPolicy returns the default policy.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  5,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}

// ─── Session Result ─────────────────────────────────────────────────────────

// ProgressUpdate is everything a progress event (a session or a team
// challenge) changed beyond its own reward.
type ProgressUpdate struct {
	BonusReward          Reward         `json:"bonus_reward"` // quests + achievements + level milestones
	TotalXP              int64          `json:"total_xp"`
	Coins                int64          `json:"coins"`
	Level                LevelInfo      `json:"level"`
	LeveledUp            bool           `json:"leveled_up"`
	LevelsGained         int            `json:"levels_gained"`
	Streak               Streak         `json:"streak"`
	CompletedQuests      []Quest        `json:"completed_quests"`
	UnlockedAchievements []Achievement  `json:"unlocked_achievements"`
	GrantedPowerUps      []string       `json:"granted_power_ups,omitempty"`
	Notifications        []Notification `json:"notifications"`
}

// SessionResult is the combined outcome of one session completion, handed
// back to the caller after a single persistence write.
type SessionResult struct {
	Session        FocusSession    `json:"session"`
	Reward         Reward          `json:"reward"`
	ActivePowerUps []ActivePowerUp `json:"active_power_ups"`
	ProgressUpdate
}
