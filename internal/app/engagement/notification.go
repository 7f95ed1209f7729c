package engagement

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
)

// NotificationService persists user-facing notifications under a policy:
// at most MaxPerDay per user per local day, and nothing between QuietStart
// and QuietEnd. Only achievements, level-ups, completed quests and power-up
// activations notify; a broken streak never does.
type NotificationService struct {
	db     *sqlite.DB
	policy domain.NotificationPolicy
	quiet  quietWindow
}

// NewNotificationService uses domain.DefaultNotificationPolicy.
func NewNotificationService(db *sqlite.DB) *NotificationService {
	return NewNotificationServiceWithPolicy(db, domain.DefaultNotificationPolicy())
}

// NewNotificationServiceWithPolicy uses the given policy. Malformed quiet
// hours read as 00:00.
func NewNotificationServiceWithPolicy(db *sqlite.DB, policy domain.NotificationPolicy) *NotificationService {
	return &NotificationService{
		db:     db,
		policy: policy,
		quiet:  quietWindow{start: minuteOfDay(policy.QuietStart), end: minuteOfDay(policy.QuietEnd)},
	}
}

// With returns a copy bound to db (usually a transaction).
func (n *NotificationService) With(db *sqlite.DB) *NotificationService {
	c := *n
	c.db = db
	return &c
}

// Create persists notif unless the policy suppresses it at notif.CreatedAt.
// A suppressed notification yields id 0 and no error.
func (n *NotificationService) Create(ctx context.Context, notif domain.Notification) (int64, error) {
	if n.quiet.contains(notif.CreatedAt) {
		metrics.NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
		return 0, nil
	}

	sent, err := n.db.NotificationCountSince(ctx, notif.UserID, gamification.StartOfDay(notif.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	if sent >= n.policy.MaxPerDay {
		metrics.NotificationsSuppressed.WithLabelValues("daily_cap").Inc()
		return 0, nil
	}

	notif.Shown = false
	id, err := n.db.InsertNotification(ctx, notif)
	if err != nil {
		return 0, fmt.Errorf("store notification: %w", err)
	}
	return id, nil
}

// Pending returns a user's unshown notifications.
func (n *NotificationService) Pending(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return n.db.PendingNotifications(ctx, userID, limit)
}

// MarkShown flags one of the user's notifications as displayed.
func (n *NotificationService) MarkShown(ctx context.Context, userID string, id int64) error {
	return n.db.MarkNotificationShown(ctx, userID, id)
}

// Policy returns the active policy.
func (n *NotificationService) Policy() domain.NotificationPolicy {
	return n.policy
}

// deliver creates each candidate in order and returns the ones persisted.
func (n *NotificationService) deliver(ctx context.Context, candidates []domain.Notification) ([]domain.Notification, error) {
	var kept []domain.Notification
	for _, notif := range candidates {
		id, err := n.Create(ctx, notif)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			continue
		}
		notif.ID = id
		kept = append(kept, notif)
	}
	return kept, nil
}

// ─── Quiet Hours ────────────────────────────────────────────────────────────

// quietWindow is a half-open [start, end) range of minutes since local
// midnight. start > end wraps midnight; start == end is empty.
type quietWindow struct {
	start, end int
}

func (q quietWindow) contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	switch {
	case q.start == q.end:
		return false
	case q.start < q.end:
		return m >= q.start && m < q.end
	default:
		return m >= q.start || m < q.end
	}
}

// minuteOfDay parses "HH:MM".
func minuteOfDay(hhmm string) int {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0
	}
	hour, _ := strconv.Atoi(strings.TrimSpace(h))
	minute, _ := strconv.Atoi(strings.TrimSpace(m))
	return hour*60 + minute
}

// ─── Notification Builders ──────────────────────────────────────────────────

func levelUpNotification(userID string, info domain.LevelInfo, now time.Time) domain.Notification {
	return domain.Notification{
		UserID:    userID,
		Type:      domain.NotifyLevelUp,
		Title:     fmt.Sprintf("Level %d reached!", info.Level),
		Body:      fmt.Sprintf("%d XP to level %d.", info.XPToNextLevel(), info.Level+1),
		CreatedAt: now,
	}
}

func questNotification(userID string, q domain.Quest, now time.Time) domain.Notification {
	return domain.Notification{
		UserID:    userID,
		Type:      domain.NotifyQuestComplete,
		Title:     "Quest complete: " + q.Name,
		Body:      fmt.Sprintf("+%d XP, +%d coins", q.Rewards.XP, q.Rewards.Coins),
		CreatedAt: now,
	}
}

func achievementNotification(userID string, a domain.Achievement, now time.Time) domain.Notification {
	return domain.Notification{
		UserID:    userID,
		Type:      domain.NotifyAchievement,
		Title:     a.Icon + " " + a.Name,
		Body:      a.Description,
		CreatedAt: now,
	}
}

func powerUpNotification(userID string, a domain.ActivePowerUp, now time.Time) domain.Notification {
	return domain.Notification{
		UserID:    userID,
		Type:      domain.NotifyPowerUp,
		Title:     a.Name + " active",
		Body:      fmt.Sprintf("x%.1f until %s", a.Multiplier, a.ExpiresAt.Format("15:04")),
		CreatedAt: now,
	}
}
