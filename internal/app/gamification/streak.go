package gamification

import (
	"fmt"
	"math"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// AdvanceStreak records a session on day and returns the new streak.
// Same day: unchanged. Next day: extend. Exactly one missed day: the weekly
// freeze keeps the streak alive once per ISO week. Longer gaps reset to 1.
// Streaks break silently.
func AdvanceStreak(s domain.Streak, day time.Time) domain.Streak {
	today := StartOfDay(day)

	if s.LastDate.IsZero() {
		s.CurrentDays = 1
	} else {
		gap := daysBetween(StartOfDay(s.LastDate.In(day.Location())), today)
		switch {
		case gap <= 0:
			// Already counted (or a clock went backwards).
			return s
		case gap == 1:
			s.CurrentDays++
		case gap == 2:
			week := ISOWeek(today)
			if !s.FreezeUsed || s.FreezeWeekISO != week {
				s.FreezeUsed = true
				s.FreezeWeekISO = week
				s.CurrentDays++
			} else {
				s.CurrentDays = 1
			}
		default:
			s.CurrentDays = 1
		}
	}

	s.LastDate = today
	if s.CurrentDays > s.LongestDays {
		s.LongestDays = s.CurrentDays
	}
	return s
}

// EffectiveStreak returns the streak as it stands at now without recording
// anything: a streak whose last day is too far back counts as zero.
func EffectiveStreak(s domain.Streak, now time.Time) int {
	if s.LastDate.IsZero() {
		return 0
	}
	gap := daysBetween(StartOfDay(s.LastDate.In(now.Location())), StartOfDay(now))
	if gap <= 1 {
		return s.CurrentDays
	}
	if gap == 2 && (!s.FreezeUsed || s.FreezeWeekISO != ISOWeek(now)) {
		return s.CurrentDays
	}
	return 0
}

// ISOWeek returns "YYYY-Www" for t.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// daysBetween counts calendar days from a to b, both local midnights.
// Rounding absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
