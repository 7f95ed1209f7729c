// Package engagement hosts the gamification engine: it loads user state,
// runs the pure calculators, and persists every consequence of a progress
// event in one SQLite transaction.
package engagement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/app/wallet"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

// Service runs the gamification use cases. Mutations of one user are
// serialized so at most one reward application per user is in flight.
type Service struct {
	db       *sqlite.DB
	wallet   *wallet.Service
	notifier *NotificationService
	log      zerolog.Logger
	now      func() time.Time

	locks userLocks
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Policy domain.NotificationPolicy
	Logger *zerolog.Logger
	Now    func() time.Time
}

// NewService creates the engagement service.
func NewService(db *sqlite.DB, opts Options) *Service {
	policy := opts.Policy
	if policy.MaxPerDay == 0 {
		policy = domain.DefaultNotificationPolicy()
	}
	log := logging.Component("engagement")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:       db,
		wallet:   wallet.NewService(db),
		notifier: NewNotificationServiceWithPolicy(db, policy),
		log:      log,
		now:      now,
	}
}

// Notifications exposes the notification service.
func (s *Service) Notifications() *NotificationService {
	return s.notifier
}

// Wallet exposes the coin ledger.
func (s *Service) Wallet() *wallet.Service {
	return s.wallet
}

// ─── Users ──────────────────────────────────────────────────────────────────

// CreateUser registers a new user with zero XP and coins.
func (s *Service) CreateUser(ctx context.Context, id, name string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrUserIDEmpty
	}
	if name == "" {
		name = id
	}

	u := domain.User{ID: id, Name: name, CreatedAt: s.now()}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	metrics.UsersRegistered.Inc()
	s.log.Info().Str("user", id).Msg("user created")
	return u, nil
}

// User returns the stored user, with coins read from the ledger.
func (s *Service) User(ctx context.Context, userID string) (domain.User, error) {
	return s.db.GetUser(ctx, userID)
}

// Profile is a user's full gamification state.
type Profile struct {
	User           domain.User            `json:"user"`
	Level          domain.LevelInfo       `json:"level"`
	Streak         int                    `json:"streak"` // effective at read time
	Inventory      []domain.InventoryItem `json:"inventory"`
	Achievements   []domain.Achievement   `json:"achievements"`
	ActivePowerUps []domain.ActivePowerUp `json:"active_power_ups"`
}

// Profile returns a user's level, streak, inventory and unlocks.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	now := s.now()
	u, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	inv, err := s.db.Inventory(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("inventory: %w", err)
	}
	achievements, err := s.achievements(ctx, s.db, userID)
	if err != nil {
		return Profile{}, err
	}
	active, err := s.activePowerUps(ctx, s.db, userID, now)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		User:           u,
		Level:          gamification.ComputeLevelInfo(u.TotalXP),
		Streak:         gamification.EffectiveStreak(u.Streak, now),
		Inventory:      inv,
		Achievements:   achievements,
		ActivePowerUps: active,
	}, nil
}

// Leaderboard ranks users by lifetime XP.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	users, err := s.db.TopUsersByXP(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	now := s.now()
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:    i + 1,
			UserID:  u.ID,
			Name:    u.Name,
			TotalXP: u.TotalXP,
			Level:   gamification.ComputeLevelInfo(u.TotalXP).Level,
			Streak:  gamification.EffectiveStreak(u.Streak, now),
		})
	}
	return entries, nil
}

// Achievements returns a user's unlocked achievements, oldest first.
func (s *Service) Achievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.achievements(ctx, s.db, userID)
}

func (s *Service) achievements(ctx context.Context, db *sqlite.DB, userID string) ([]domain.Achievement, error) {
	unlocked, err := db.UnlockedAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("achievements: %w", err)
	}
	out := make([]domain.Achievement, 0, len(unlocked))
	for id, at := range unlocked {
		def, ok := gamification.AchievementByID(id)
		if !ok {
			continue // retired from the catalog
		}
		out = append(out, gamification.Unlock(def, at))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UnlockedAt.Before(out[j].UnlockedAt)
	})
	return out, nil
}

// Sessions returns a user's most recent sessions.
func (s *Service) Sessions(ctx context.Context, userID string, limit int) ([]domain.FocusSession, error) {
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.db.RecentSessions(ctx, userID, limit)
}

// ─── Per-User Locks ─────────────────────────────────────────────────────────

type userLocks struct {
	mu sync.Mutex
	m  map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the user's mutex and returns its release func. An entry
// lives only while some caller holds or waits on it.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*userLock)
	}
	e, ok := l.m[userID]
	if !ok {
		e = &userLock{}
		l.m[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
