// Package analytics aggregates a user's focus sessions into a summary used
// by the insight provider and the insights endpoint.
//
// Everything here is pure: callers load the sessions and pass them in.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
)

// DefaultWindow is the lookback used when none is configured.
const DefaultWindow = 7 * 24 * time.Hour

// Summarize aggregates the sessions that completed in [from, to). Days are
// bucketed in from's location and every day of the window is listed, empty
// or not.
func Summarize(userID string, sessions []domain.FocusSession, from, to time.Time) domain.FocusSummary {
	s := domain.FocusSummary{
		UserID:   userID,
		From:     from,
		To:       to,
		BestHour: -1,
		Days:     emptyDays(from, to),
	}

	in := make([]domain.FocusSession, 0, len(sessions))
	for _, fs := range sessions {
		if fs.CompletedAt.Before(from) || !fs.CompletedAt.Before(to) {
			continue
		}
		in = append(in, fs)
	}
	if len(in) == 0 {
		return s
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].CompletedAt.Before(in[j].CompletedAt) })

	dayIndex := make(map[string]int, len(s.Days))
	for i, d := range s.Days {
		dayIndex[d.Date] = i
	}

	var scoreSum float64
	var hourMinutes [24]float64
	for _, fs := range in {
		local := fs.CompletedAt.In(from.Location())
		mins := fs.Minutes()

		s.Sessions++
		s.TotalMinutes += mins
		scoreSum += fs.FocusScore
		if fs.FocusScore > s.BestScore {
			s.BestScore = fs.FocusScore
		}
		hourMinutes[local.Hour()] += mins

		if i, ok := dayIndex[local.Format("2006-01-02")]; ok {
			d := &s.Days[i]
			// running mean
			d.AvgScore = (d.AvgScore*float64(d.Sessions) + fs.FocusScore) / float64(d.Sessions+1)
			d.Sessions++
			d.FocusMinutes += mins
		}
	}

	s.AvgScore = round2(scoreSum / float64(s.Sessions))
	s.AvgSessionMins = round2(s.TotalMinutes / float64(s.Sessions))
	s.TotalMinutes = round2(s.TotalMinutes)
	s.BestHour = bestHour(hourMinutes)
	s.Trend = round2(trend(in))
	for i := range s.Days {
		s.Days[i].FocusMinutes = round2(s.Days[i].FocusMinutes)
		s.Days[i].AvgScore = round2(s.Days[i].AvgScore)
	}
	return s
}

// emptyDays lists one zeroed entry per calendar day touched by [from, to).
func emptyDays(from, to time.Time) []domain.DailyFocus {
	if !to.After(from) {
		return nil
	}
	var days []domain.DailyFocus
	for d := gamification.StartOfDay(from); d.Before(to); d = gamification.NextMidnight(d) {
		days = append(days, domain.DailyFocus{Date: d.Format("2006-01-02")})
	}
	return days
}

// bestHour returns the hour with the most focus minutes; ties go to the
// earlier hour.
func bestHour(minutes [24]float64) int {
	best := -1
	for h, m := range minutes {
		if m > 0 && (best < 0 || m > minutes[best]) {
			best = h
		}
	}
	return best
}

// trend is the average score of the later half minus the earlier half.
// An odd middle session counts toward the later half.
func trend(sorted []domain.FocusSession) float64 {
	if len(sorted) < 2 {
		return 0
	}
	mid := len(sorted) / 2
	return meanScore(sorted[mid:]) - meanScore(sorted[:mid])
}

func meanScore(ss []domain.FocusSession) float64 {
	var sum float64
	for _, s := range ss {
		sum += s.FocusScore
	}
	return sum / float64(len(ss))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
