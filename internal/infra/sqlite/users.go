package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────
// Coins are not stored on the user row: the wallet balance is the latest
// running balance of the user's ledger account.

const userColumns = `u.id, u.name, u.total_xp, u.streak_current, u.streak_longest, u.streak_last,
	u.freeze_used, u.freeze_week, u.created_at,
	COALESCE((SELECT l.balance FROM coin_ledger l WHERE l.account = 'user:' || u.id ORDER BY l.id DESC LIMIT 1), 0)`

// CreateUser inserts a new user. Fails with domain.ErrUserExists on a
// duplicate id.
func (d *DB) CreateUser(ctx context.Context, u domain.User) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO users (id, name, total_xp, streak_current, streak_longest, streak_last, freeze_used, freeze_week, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.TotalXP,
		u.Streak.CurrentDays, u.Streak.LongestDays, nullableMillis(u.Streak.LastDate),
		u.Streak.FreezeUsed, u.Streak.FreezeWeekISO, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.ID, domain.ErrUserExists)
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID. Fails with domain.ErrUserNotFound.
func (d *DB) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrUserNotFound)
	}
	return u, err
}

// ListUsers returns all users ordered by creation time.
func (d *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProgress stores lifetime XP and the streak.
func (d *DB) UpdateUserProgress(ctx context.Context, id string, totalXP int64, s domain.Streak) error {
	result, err := d.q.ExecContext(ctx,
		`UPDATE users SET total_xp = ?, streak_current = ?, streak_longest = ?, streak_last = ?,
			freeze_used = ?, freeze_week = ?
		 WHERE id = ?`,
		totalXP, s.CurrentDays, s.LongestDays, nullableMillis(s.LastDate),
		s.FreezeUsed, s.FreezeWeekISO, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrUserNotFound)
	}
	return nil
}

// UserCount returns the number of registered users.
func (d *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := d.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

// TopUsersByXP returns up to limit users by lifetime XP, ties broken by
// earliest sign-up.
func (d *DB) TopUsersByXP(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users u ORDER BY u.total_xp DESC, u.created_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	var last sql.NullInt64
	var created int64
	err := s.Scan(&u.ID, &u.Name, &u.TotalXP,
		&u.Streak.CurrentDays, &u.Streak.LongestDays, &last,
		&u.Streak.FreezeUsed, &u.Streak.FreezeWeekISO, &created, &u.Coins)
	if err != nil {
		return domain.User{}, err
	}
	if last.Valid {
		u.Streak.LastDate = fromMillis(last.Int64)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// modernc reports constraint failures only through the message text.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
