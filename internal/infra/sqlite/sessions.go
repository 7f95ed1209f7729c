package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Focus Sessions ─────────────────────────────────────────────────────────

// InsertSession records a completed focus session.
func (d *DB) InsertSession(ctx context.Context, s domain.FocusSession) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, focus_score, duration_seconds, xp, coins, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.FocusScore, s.DurationSeconds, s.XP, s.Coins, toMillis(s.CompletedAt),
	)
	return err
}

// RecentSessions returns a user's latest sessions, newest first.
func (d *DB) RecentSessions(ctx context.Context, userID string, limit int) ([]domain.FocusSession, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, user_id, focus_score, duration_seconds, xp, coins, completed_at
		 FROM sessions WHERE user_id = ? ORDER BY completed_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// SessionsBetween returns sessions completed in [from, to), oldest first.
func (d *DB) SessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.FocusSession, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, user_id, focus_score, duration_seconds, xp, coins, completed_at
		 FROM sessions WHERE user_id = ? AND completed_at >= ? AND completed_at < ?
		 ORDER BY completed_at ASC, rowid ASC`,
		userID, toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]domain.FocusSession, error) {
	defer rows.Close()
	var out []domain.FocusSession
	for rows.Next() {
		var s domain.FocusSession
		var completed int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.FocusScore, &s.DurationSeconds,
			&s.XP, &s.Coins, &completed); err != nil {
			return nil, err
		}
		s.CompletedAt = fromMillis(completed)
		out = append(out, s)
	}
	return out, rows.Err()
}

// WindowStats aggregates a user's sessions inside a quest window.
type WindowStats struct {
	Sessions     int
	FocusSeconds int64
	AvgScore     float64
	AtLeast      int // sessions scoring >= the requested minimum
}

// FocusMinutes returns the window's focus time in minutes.
func (w WindowStats) FocusMinutes() float64 {
	return float64(w.FocusSeconds) / 60.0
}

// SessionWindow aggregates sessions completed in [from, to).
func (d *DB) SessionWindow(ctx context.Context, userID string, from, to time.Time, minScore float64) (WindowStats, error) {
	var w WindowStats
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0), COALESCE(AVG(focus_score), 0),
			COALESCE(SUM(CASE WHEN focus_score >= ? THEN 1 ELSE 0 END), 0)
		 FROM sessions WHERE user_id = ? AND completed_at >= ? AND completed_at < ?`,
		minScore, userID, toMillis(from), toMillis(to),
	).Scan(&w.Sessions, &w.FocusSeconds, &w.AvgScore, &w.AtLeast)
	return w, err
}

// LifetimeStats fills the session- and team-derived fields of UserStats.
// Streak and level come from the caller.
func (d *DB) LifetimeStats(ctx context.Context, userID string) (domain.UserStats, error) {
	var st domain.UserStats
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0), COALESCE(MAX(focus_score), 0),
			COALESCE(MAX(duration_seconds), 0)
		 FROM sessions WHERE user_id = ?`, userID,
	).Scan(&st.SessionsCompleted, &st.TotalFocusSeconds, &st.BestFocusScore, &st.LongestSessionSeconds)
	if err != nil {
		return domain.UserStats{}, err
	}

	err = d.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_challenges WHERE user_id = ?`, userID,
	).Scan(&st.TeamChallenges)
	if err != nil {
		return domain.UserStats{}, err
	}
	return st, nil
}

// ─── Team Challenges ────────────────────────────────────────────────────────

// InsertTeamChallenge records a completed team challenge.
func (d *DB) InsertTeamChallenge(ctx context.Context, id, userID, team string, at time.Time) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO team_challenges (id, user_id, team, completed_at) VALUES (?, ?, ?, ?)`,
		id, userID, team, toMillis(at),
	)
	return err
}

// TeamChallengesBetween counts team challenges completed in [from, to).
func (d *DB) TeamChallengesBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var n int
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_challenges WHERE user_id = ? AND completed_at >= ? AND completed_at < ?`,
		userID, toMillis(from), toMillis(to),
	).Scan(&n)
	return n, err
}
