package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Quests ─────────────────────────────────────────────────────────────────

const questColumns = `id, user_id, name, description, type, difficulty, conditions, rewards, start_date, end_date, status`

// InsertQuest stores a generated quest. Generating the same quest twice is a
// no-op: ids are deterministic per period. Returns true when inserted.
func (d *DB) InsertQuest(ctx context.Context, q domain.Quest) (bool, error) {
	conds, rewards, err := encodeQuest(q)
	if err != nil {
		return false, err
	}
	result, err := d.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO quests (`+questColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Name, q.Description, string(q.Type), string(q.Difficulty),
		conds, rewards, toMillis(q.StartDate), toMillis(q.EndDate), string(q.Status),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// UpdateQuest stores a quest's progress and status.
func (d *DB) UpdateQuest(ctx context.Context, q domain.Quest) error {
	conds, _, err := encodeQuest(q)
	if err != nil {
		return err
	}
	result, err := d.q.ExecContext(ctx,
		`UPDATE quests SET conditions = ?, status = ? WHERE user_id = ? AND id = ?`,
		conds, string(q.Status), q.UserID, q.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("quest %s: %w", q.ID, domain.ErrQuestNotFound)
	}
	return nil
}

// ListQuests returns a user's quests whose window is still open at now,
// whatever their status, soonest-ending first.
func (d *DB) ListQuests(ctx context.Context, userID string, now time.Time) ([]domain.Quest, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+questColumns+` FROM quests WHERE user_id = ? AND end_date >= ?
		 ORDER BY end_date ASC, id ASC`, userID, toMillis(now),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// FailExpiredQuests marks active quests whose window closed before now as
// failed. Returns the number of quests changed.
func (d *DB) FailExpiredQuests(ctx context.Context, now time.Time) (int64, error) {
	result, err := d.q.ExecContext(ctx,
		`UPDATE quests SET status = ? WHERE status = ? AND end_date < ?`,
		string(domain.QuestFailed), string(domain.QuestActive), toMillis(now),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func encodeQuest(q domain.Quest) (string, string, error) {
	conds, err := json.Marshal(q.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("encode conditions: %w", err)
	}
	rewards, err := json.Marshal(q.Rewards)
	if err != nil {
		return "", "", fmt.Errorf("encode rewards: %w", err)
	}
	return string(conds), string(rewards), nil
}

func scanQuest(s scanner) (domain.Quest, error) {
	var q domain.Quest
	var conds, rewards string
	var start, end int64
	err := s.Scan(&q.ID, &q.UserID, &q.Name, &q.Description, &q.Type, &q.Difficulty,
		&conds, &rewards, &start, &end, &q.Status)
	if err != nil {
		return domain.Quest{}, err
	}
	if err := json.Unmarshal([]byte(conds), &q.Conditions); err != nil {
		return domain.Quest{}, fmt.Errorf("decode quest %s conditions: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(rewards), &q.Rewards); err != nil {
		return domain.Quest{}, fmt.Errorf("decode quest %s rewards: %w", q.ID, err)
	}
	q.StartDate = fromMillis(start)
	q.EndDate = fromMillis(end)
	return q, nil
}

// ─── Achievements ───────────────────────────────────────────────────────────

// UnlockAchievement records an achievement as unlocked.
// Returns false if already unlocked (idempotent).
func (d *DB) UnlockAchievement(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	result, err := d.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO achievements (user_id, id, unlocked_at) VALUES (?, ?, ?)`,
		userID, id, toMillis(at),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil // true = newly unlocked
}

// UnlockedAchievements returns achievement id → unlock time for a user.
func (d *DB) UnlockedAchievements(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, unlocked_at FROM achievements WHERE user_id = ? ORDER BY unlocked_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at int64
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		out[id] = fromMillis(at)
	}
	return out, rows.Err()
}

// ─── Inventory ──────────────────────────────────────────────────────────────

// AddInventory adds qty of an item, creating the row when missing.
func (d *DB) AddInventory(ctx context.Context, userID string, kind domain.InventoryKind, itemID string, qty int) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO inventory (user_id, kind, item_id, quantity) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, kind, item_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, string(kind), itemID, qty,
	)
	return err
}

// ConsumeInventory removes one copy of an item. Returns false when the user
// holds none.
func (d *DB) ConsumeInventory(ctx context.Context, userID string, kind domain.InventoryKind, itemID string) (bool, error) {
	result, err := d.q.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - 1
		 WHERE user_id = ? AND kind = ? AND item_id = ? AND quantity > 0`,
		userID, string(kind), itemID,
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Inventory lists a user's items with a positive quantity.
func (d *DB) Inventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT kind, item_id, quantity FROM inventory
		 WHERE user_id = ? AND quantity > 0 ORDER BY kind, item_id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.Kind, &it.ItemID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ─── Active Power-Ups ───────────────────────────────────────────────────────

// InsertActivePowerUp stores an activated instance and returns its id.
func (d *DB) InsertActivePowerUp(ctx context.Context, userID string, a domain.ActivePowerUp, activatedAt time.Time) (int64, error) {
	result, err := d.q.ExecContext(ctx,
		`INSERT INTO active_powerups (user_id, powerup_id, activated_at, expires_at) VALUES (?, ?, ?, ?)`,
		userID, a.ID, toMillis(activatedAt), toMillis(a.ExpiresAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ActivePowerUpRow is a stored instance; the catalog entry is joined in by
// the caller.
type ActivePowerUpRow struct {
	ID        int64
	PowerUpID string
	ExpiresAt time.Time
}

// ActivePowerUps returns a user's instances not yet expired at now, in
// activation order.
func (d *DB) ActivePowerUps(ctx context.Context, userID string, now time.Time) ([]ActivePowerUpRow, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, powerup_id, expires_at FROM active_powerups
		 WHERE user_id = ? AND expires_at >= ? ORDER BY id ASC`,
		userID, toMillis(now),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivePowerUpRow
	for rows.Next() {
		var r ActivePowerUpRow
		var exp int64
		if err := rows.Scan(&r.ID, &r.PowerUpID, &exp); err != nil {
			return nil, err
		}
		r.ExpiresAt = fromMillis(exp)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteExpiredPowerUps removes instances that expired before now.
func (d *DB) DeleteExpiredPowerUps(ctx context.Context, now time.Time) (int64, error) {
	result, err := d.q.ExecContext(ctx,
		`DELETE FROM active_powerups WHERE expires_at < ?`, toMillis(now),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (d *DB) InsertNotification(ctx context.Context, n domain.Notification) (int64, error) {
	result, err := d.q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Title, n.Body, toMillis(n.CreatedAt), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NotificationCountSince returns how many notifications a user received
// since the given time.
func (d *DB) NotificationCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := d.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`,
		userID, toMillis(since),
	).Scan(&count)
	return count, err
}

// PendingNotifications returns a user's unshown notifications, newest first.
func (d *DB) PendingNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, user_id, type, title, body, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks a user's notification as shown.
func (d *DB) MarkNotificationShown(ctx context.Context, userID string, id int64) error {
	result, err := d.q.ExecContext(ctx,
		`UPDATE notifications SET shown = 1 WHERE user_id = ? AND id = ?`, userID, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("notification %d: %w", id, domain.ErrNotificationNotFound)
	}
	return nil
}

func scanNotification(s scanner) (domain.Notification, error) {
	var n domain.Notification
	var created int64
	var shown sql.NullBool
	if err := s.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &created, &shown); err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt = fromMillis(created)
	n.Shown = shown.Bool
	return n, nil
}
