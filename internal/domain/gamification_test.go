package domain

import (
	"testing"
	"time"
)

// ─── Power-Up Tests ─────────────────────────────────────────────────────────

func TestPowerUpKind_Targets(t *testing.T) {
	tests := []struct {
		kind  PowerUpKind
		xp    bool
		coins bool
	}{
		{PowerUpXPBoost, true, false},
		{PowerUpCoinBoost, false, true},
		{PowerUpAllBoost, true, true},
		{PowerUpKind("bogus"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.BoostsXP(); got != tt.xp {
				t.Errorf("BoostsXP() = %v, want %v", got, tt.xp)
			}
			if got := tt.kind.BoostsCoins(); got != tt.coins {
				t.Errorf("BoostsCoins() = %v, want %v", got, tt.coins)
			}
		})
	}
}

func TestActivePowerUp_Expired(t *testing.T) {
	exp := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	a := ActivePowerUp{ExpiresAt: exp}

	if a.Expired(exp) {
		t.Error("instance should still be active exactly at expiry")
	}
	if !a.Expired(exp.Add(time.Millisecond)) {
		t.Error("instance should be expired after expiry")
	}
}

// ─── Quest Tests ────────────────────────────────────────────────────────────

func TestQuest_CloneDoesNotAlias(t *testing.T) {
	q := Quest{ID: "q", Conditions: []QuestCondition{{Type: ConditionFocusTime, Target: 10}}}
	cp := q.Clone()
	cp.Conditions[0].Current = 7

	if q.Conditions[0].Current != 0 {
		t.Errorf("original mutated through clone: current = %v", q.Conditions[0].Current)
	}
}

func TestQuest_ProgressPct(t *testing.T) {
	tests := []struct {
		name string
		q    Quest
		want float64
	}{
		{"no conditions", Quest{}, 100},
		{"half", Quest{Conditions: []QuestCondition{{Target: 10, Current: 5}}}, 50},
		{"over target capped", Quest{Conditions: []QuestCondition{{Target: 10, Current: 25}}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.ProgressPct(); got != tt.want {
				t.Errorf("ProgressPct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuest_Expired(t *testing.T) {
	end := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	q := Quest{EndDate: end}
	if q.Expired(end) {
		t.Error("quest should not be expired at its end date")
	}
	if !q.Expired(end.Add(time.Second)) {
		t.Error("quest should be expired after its end date")
	}
}

// ─── Level & Reward Tests ───────────────────────────────────────────────────

func TestLevelInfo_XPToNextLevel(t *testing.T) {
	l := LevelInfo{CurrentXP: 400, RequiredXP: 1000}
	if got := l.XPToNextLevel(); got != 600 {
		t.Errorf("XPToNextLevel() = %d, want 600", got)
	}
}

func TestReward_Add(t *testing.T) {
	r := Reward{XP: 10, Coins: 5}.Add(Reward{XP: 1, Coins: 2})
	if r.XP != 11 || r.Coins != 7 {
		t.Errorf("Add() = %+v, want {11 7}", r)
	}
	if r.IsZero() {
		t.Error("IsZero() = true for non-empty reward")
	}
}

func TestFallbackInsight_Source(t *testing.T) {
	if got := FallbackInsight().Source; got != "fallback" {
		t.Errorf("Source = %q, want fallback", got)
	}
}
