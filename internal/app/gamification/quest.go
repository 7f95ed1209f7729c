package gamification

import (
	"fmt"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Quest Templates ────────────────────────────────────────────────────────
// Daily quests end at the next local midnight; weekly quests end on Sunday
// 23:59:59.999 local. IDs derive from the calendar day or ISO week, so
// generating twice in the same period yields the same ids.

// EliteQuestMinStreak is the weekly streak that unlocks the hard daily quest.
const EliteQuestMinStreak = 5

type questTemplate struct {
	key         string
	name        string
	description string
	difficulty  domain.QuestDifficulty
	condition   domain.QuestCondition
	rewards     domain.QuestRewards
}

var (
	dailyTemplates = []questTemplate{
		{
			key: "focus", name: "Deep Work", description: "Focus for 120 minutes today",
			difficulty: domain.DifficultyMedium,
			condition:  domain.QuestCondition{Type: domain.ConditionFocusTime, Target: 120},
			rewards:    domain.QuestRewards{XP: 100, Coins: 50},
		},
		{
			key: "quality", name: "Sharp Mind", description: "Keep an average focus score of at least 80% today",
			difficulty: domain.DifficultyEasy,
			condition:  domain.QuestCondition{Type: domain.ConditionCustom, Target: 80},
			rewards:    domain.QuestRewards{XP: 150, Coins: 75},
		},
	}

	eliteTemplate = questTemplate{
		key: "elite", name: "Elite Focus", description: "Complete 3 sessions at 90% focus or better",
		difficulty: domain.DifficultyHard,
		condition:  domain.QuestCondition{Type: domain.ConditionChallenges, Target: 3, MinScore: 90},
		rewards:    domain.QuestRewards{XP: 250, Coins: 100, Achievement: "elite_focus"},
	}

	weeklyTemplates = []questTemplate{
		{
			key: "focus", name: "Ten Hour Week", description: "Focus for 10 hours this week",
			difficulty: domain.DifficultyHard,
			condition:  domain.QuestCondition{Type: domain.ConditionFocusTime, Target: 600},
			rewards:    domain.QuestRewards{XP: 500, Coins: 250},
		},
		{
			key: "team", name: "Team Player", description: "Complete 3 team challenges this week",
			difficulty: domain.DifficultyMedium,
			condition:  domain.QuestCondition{Type: domain.ConditionCollaboration, Target: 3},
			rewards:    domain.QuestRewards{XP: 300, Coins: 150},
		},
	}
)

// GenerateDaily creates today's quests. The hard elite quest is appended
// only when weeklyStreak reaches EliteQuestMinStreak.
func GenerateDaily(now time.Time, weeklyStreak int) []domain.Quest {
	start := StartOfDay(now)
	end := NextMidnight(now)
	day := start.Format("2006-01-02")

	templates := dailyTemplates
	if weeklyStreak >= EliteQuestMinStreak {
		templates = append(append([]questTemplate{}, dailyTemplates...), eliteTemplate)
	}

	quests := make([]domain.Quest, 0, len(templates))
	for _, t := range templates {
		quests = append(quests, t.instantiate("daily-"+t.key+"-"+day, domain.QuestDaily, start, end))
	}
	return quests
}

// GenerateWeekly creates this week's quests.
func GenerateWeekly(now time.Time) []domain.Quest {
	start := StartOfWeek(now)
	end := EndOfWeek(now)
	year, week := now.ISOWeek()
	suffix := fmt.Sprintf("%d-W%02d", year, week)

	quests := make([]domain.Quest, 0, len(weeklyTemplates))
	for _, t := range weeklyTemplates {
		quests = append(quests, t.instantiate("weekly-"+t.key+"-"+suffix, domain.QuestWeekly, start, end))
	}
	return quests
}

func (t questTemplate) instantiate(id string, typ domain.QuestType, start, end time.Time) domain.Quest {
	return domain.Quest{
		ID:          id,
		Name:        t.name,
		Description: t.description,
		Type:        typ,
		Difficulty:  t.difficulty,
		Conditions:  []domain.QuestCondition{t.condition},
		Rewards:     t.rewards,
		StartDate:   start,
		EndDate:     end,
		Status:      domain.QuestActive,
	}
}

// HasUnexpired reports whether quests holds a quest of typ whose window is
// still open at now, whatever its status. Generation for a type happens
// only when this is false.
func HasUnexpired(quests []domain.Quest, typ domain.QuestType, now time.Time) bool {
	for _, q := range quests {
		if q.Type == typ && !q.Expired(now) {
			return true
		}
	}
	return false
}

// ─── Quest Progress ─────────────────────────────────────────────────────────

// ProgressResult is the outcome of ApplyProgress.
type ProgressResult struct {
	Quest         domain.Quest
	JustCompleted bool
}

// ApplyProgress sets the first condition's current value and completes the
// quest when the target is reached. Non-active quests are rejected with
// domain.ErrQuestNotActive and returned unchanged, so rewards can only be
// issued once. The input quest is never mutated.
func ApplyProgress(q domain.Quest, newCurrent float64) (ProgressResult, error) {
	if q.Status != domain.QuestActive {
		return ProgressResult{Quest: q}, fmt.Errorf("quest %s (%s): %w", q.ID, q.Status, domain.ErrQuestNotActive)
	}
	if len(q.Conditions) == 0 {
		return ProgressResult{Quest: q}, fmt.Errorf("quest %s: %w", q.ID, domain.ErrQuestMalformed)
	}

	updated := q.Clone()
	// Multi-condition quests are not supported: only index 0 advances.
	updated.Conditions[0].Current = newCurrent
	if newCurrent >= updated.Conditions[0].Target {
		updated.Status = domain.QuestCompleted
		return ProgressResult{Quest: updated, JustCompleted: true}, nil
	}
	return ProgressResult{Quest: updated}, nil
}

// ─── Calendar Helpers ───────────────────────────────────────────────────────

// StartOfDay returns local midnight at the start of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 local of t's week.
func StartOfWeek(t time.Time) time.Time {
	sinceMonday := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, t.Location())
}

// EndOfWeek returns Sunday 23:59:59.999 local of t's week.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	y, m, d := start.Date()
	return time.Date(y, m, d+6, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
