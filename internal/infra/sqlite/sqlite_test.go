package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *DB, id string) {
	t.Helper()
	if err := db.CreateUser(context.Background(), domain.User{ID: id, Name: id, CreatedAt: t0}); err != nil {
		t.Fatalf("CreateUser(%s) error: %v", id, err)
	}
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "focusforge.db")); os.IsNotExist(err) {
		t.Error("focusforge.db should exist")
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	seedUser(t, db, "alice")
	db.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db2.Close()
	if _, err := db2.GetUser(context.Background(), "alice"); err != nil {
		t.Errorf("user lost across reopen: %v", err)
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestInTx_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(tx *DB) error {
		if err := tx.CreateUser(ctx, domain.User{ID: "ghost", Name: "ghost", CreatedAt: t0}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}
	if _, err := db.GetUser(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("rolled-back user still visible: %v", err)
	}
}

func TestInTx_Commit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(tx *DB) error {
		if err := tx.CreateUser(ctx, domain.User{ID: "bob", Name: "Bob", CreatedAt: t0}); err != nil {
			return err
		}
		// Nested calls join the outer transaction.
		return tx.InTx(ctx, func(inner *DB) error {
			return inner.UpdateUserProgress(ctx, "bob", 42, domain.Streak{CurrentDays: 1})
		})
	})
	if err != nil {
		t.Fatalf("InTx error: %v", err)
	}
	u, err := db.GetUser(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if u.TotalXP != 42 || u.Streak.CurrentDays != 1 {
		t.Errorf("user = %+v, want xp 42 streak 1", u)
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestCreateUser_Duplicate(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "alice")
	err := db.CreateUser(context.Background(), domain.User{ID: "alice", Name: "again", CreatedAt: t0})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("duplicate error = %v, want ErrUserExists", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetUser(context.Background(), "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
	if err := db.UpdateUserProgress(context.Background(), "nobody", 1, domain.Streak{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("update error = %v, want ErrUserNotFound", err)
	}
}

func TestUserProgress_StreakRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	s := domain.Streak{CurrentDays: 4, LongestDays: 9, LastDate: t0, FreezeUsed: true, FreezeWeekISO: "2026-W42"}
	if err := db.UpdateUserProgress(ctx, "alice", 1234, s); err != nil {
		t.Fatalf("UpdateUserProgress error: %v", err)
	}
	u, _ := db.GetUser(ctx, "alice")
	if u.Streak.CurrentDays != 4 || u.Streak.LongestDays != 9 || !u.Streak.FreezeUsed || u.Streak.FreezeWeekISO != "2026-W42" {
		t.Errorf("streak = %+v", u.Streak)
	}
	if !u.Streak.LastDate.Equal(t0) {
		t.Errorf("last date = %v, want %v", u.Streak.LastDate, t0)
	}
}

func TestGetUser_CoinsFromLedger(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	for _, bal := range []int64{100, 250, 175} {
		_, err := db.InsertLedgerEntry(ctx, domain.LedgerEntry{
			Timestamp: t0, Type: domain.TxSessionReward, EntryType: domain.EntryCredit,
			Account: domain.UserAccount("alice"), Amount: 1, Balance: bal,
		})
		if err != nil {
			t.Fatalf("InsertLedgerEntry error: %v", err)
		}
	}
	u, _ := db.GetUser(ctx, "alice")
	if u.Coins != 175 {
		t.Errorf("coins = %d, want latest balance 175", u.Coins)
	}
}

func TestTopUsersByXP(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		if err := db.CreateUser(ctx, domain.User{ID: id, Name: id, CreatedAt: t0.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	db.UpdateUserProgress(ctx, "a", 500, domain.Streak{})
	db.UpdateUserProgress(ctx, "b", 900, domain.Streak{})
	db.UpdateUserProgress(ctx, "c", 500, domain.Streak{})

	top, err := db.TopUsersByXP(ctx, 10)
	if err != nil {
		t.Fatalf("TopUsersByXP error: %v", err)
	}
	want := []string{"b", "a", "c"}
	for i, u := range top {
		if u.ID != want[i] {
			t.Errorf("rank %d = %s, want %s", i+1, u.ID, want[i])
		}
	}
	if top2, _ := db.TopUsersByXP(ctx, 2); len(top2) != 2 {
		t.Errorf("limit 2 returned %d", len(top2))
	}
}

// ─── Sessions ───────────────────────────────────────────────────────────────

func TestSessionWindowAndLifetime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	sessions := []domain.FocusSession{
		{ID: "s1", UserID: "alice", FocusScore: 92, DurationSeconds: 1500, CompletedAt: t0},
		{ID: "s2", UserID: "alice", FocusScore: 70, DurationSeconds: 3000, CompletedAt: t0.Add(time.Hour)},
		{ID: "s3", UserID: "alice", FocusScore: 95, DurationSeconds: 6000, CompletedAt: t0.Add(48 * time.Hour)},
	}
	for _, s := range sessions {
		if err := db.InsertSession(ctx, s); err != nil {
			t.Fatalf("InsertSession error: %v", err)
		}
	}

	w, err := db.SessionWindow(ctx, "alice", t0, t0.Add(24*time.Hour), 90)
	if err != nil {
		t.Fatalf("SessionWindow error: %v", err)
	}
	if w.Sessions != 2 || w.FocusSeconds != 4500 || w.AtLeast != 1 {
		t.Errorf("window = %+v", w)
	}
	if w.AvgScore != 81 || w.FocusMinutes() != 75 {
		t.Errorf("avg %v minutes %v, want 81 and 75", w.AvgScore, w.FocusMinutes())
	}

	empty, err := db.SessionWindow(ctx, "alice", t0.Add(-48*time.Hour), t0, 0)
	if err != nil || empty.Sessions != 0 || empty.AvgScore != 0 {
		t.Errorf("empty window = %+v, %v", empty, err)
	}

	if err := db.InsertTeamChallenge(ctx, "tc1", "alice", "blue", t0); err != nil {
		t.Fatal(err)
	}
	st, err := db.LifetimeStats(ctx, "alice")
	if err != nil {
		t.Fatalf("LifetimeStats error: %v", err)
	}
	if st.SessionsCompleted != 3 || st.TotalFocusSeconds != 10500 || st.BestFocusScore != 95 ||
		st.LongestSessionSeconds != 6000 || st.TeamChallenges != 1 {
		t.Errorf("lifetime = %+v", st)
	}

	recent, _ := db.RecentSessions(ctx, "alice", 2)
	if len(recent) != 2 || recent[0].ID != "s3" {
		t.Errorf("recent = %+v", recent)
	}
	between, _ := db.SessionsBetween(ctx, "alice", t0, t0.Add(2*time.Hour))
	if len(between) != 2 || between[0].ID != "s1" {
		t.Errorf("between = %+v", between)
	}
}

// ─── Quests ─────────────────────────────────────────────────────────────────

func TestQuestLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	q := domain.Quest{
		ID: "daily-focus-2026-10-16", UserID: "alice", Name: "Deep Work", Description: "Focus",
		Type: domain.QuestDaily, Difficulty: domain.DifficultyMedium,
		Conditions: []domain.QuestCondition{{Type: domain.ConditionFocusTime, Target: 120}},
		Rewards:    domain.QuestRewards{XP: 100, Coins: 50},
		StartDate:  time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		Status:     domain.QuestActive,
	}
	inserted, err := db.InsertQuest(ctx, q)
	if err != nil || !inserted {
		t.Fatalf("InsertQuest = %v, %v", inserted, err)
	}
	if again, _ := db.InsertQuest(ctx, q); again {
		t.Error("second insert of the same quest should be ignored")
	}

	q.Conditions[0].Current = 130
	q.Status = domain.QuestCompleted
	if err := db.UpdateQuest(ctx, q); err != nil {
		t.Fatalf("UpdateQuest error: %v", err)
	}

	got, err := db.ListQuests(ctx, "alice", t0)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListQuests = %d, %v", len(got), err)
	}
	if got[0].Status != domain.QuestCompleted || got[0].Conditions[0].Current != 130 || got[0].Rewards.Coins != 50 {
		t.Errorf("quest = %+v", got[0])
	}

	if later, _ := db.ListQuests(ctx, "alice", t0.Add(24*time.Hour)); len(later) != 0 {
		t.Errorf("expired quest still listed: %+v", later)
	}

	missing := q
	missing.ID = "nope"
	if err := db.UpdateQuest(ctx, missing); !errors.Is(err, domain.ErrQuestNotFound) {
		t.Errorf("UpdateQuest(missing) = %v, want ErrQuestNotFound", err)
	}
}

func TestFailExpiredQuests(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	base := domain.Quest{
		UserID: "alice", Type: domain.QuestDaily, Difficulty: domain.DifficultyEasy,
		Conditions: []domain.QuestCondition{{Type: domain.ConditionCustom, Target: 80}},
		StartDate:  t0.Add(-24 * time.Hour),
	}
	for _, q := range []struct {
		id     string
		end    time.Time
		status domain.QuestStatus
	}{
		{"old-active", t0.Add(-time.Minute), domain.QuestActive},
		{"old-done", t0.Add(-time.Minute), domain.QuestCompleted},
		{"current", t0.Add(time.Hour), domain.QuestActive},
	} {
		b := base
		b.ID, b.EndDate, b.Status = q.id, q.end, q.status
		if _, err := db.InsertQuest(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.FailExpiredQuests(ctx, t0)
	if err != nil {
		t.Fatalf("FailExpiredQuests error: %v", err)
	}
	if n != 1 {
		t.Errorf("failed %d quests, want 1", n)
	}
}

// ─── Achievements & Inventory ───────────────────────────────────────────────

func TestUnlockAchievement_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	first, _ := db.UnlockAchievement(ctx, "alice", "focus_master", t0)
	second, _ := db.UnlockAchievement(ctx, "alice", "focus_master", t0.Add(time.Hour))
	if !first || second {
		t.Errorf("unlock = %v then %v, want true then false", first, second)
	}
	if other, _ := db.UnlockAchievement(ctx, "bob", "focus_master", t0); !other {
		t.Error("achievements are per user")
	}

	got, err := db.UnlockedAchievements(ctx, "alice")
	if err != nil || len(got) != 1 || !got["focus_master"].Equal(t0) {
		t.Errorf("unlocked = %v, %v", got, err)
	}
}

func TestInventory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	db.AddInventory(ctx, "alice", domain.InventoryPowerUp, "xp_boost_small", 1)
	db.AddInventory(ctx, "alice", domain.InventoryPowerUp, "xp_boost_small", 1)
	db.AddInventory(ctx, "alice", domain.InventoryBadge, "Focus Master", 1)

	items, _ := db.Inventory(ctx, "alice")
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}

	for i := 0; i < 2; i++ {
		if ok, err := db.ConsumeInventory(ctx, "alice", domain.InventoryPowerUp, "xp_boost_small"); !ok || err != nil {
			t.Fatalf("consume %d = %v, %v", i, ok, err)
		}
	}
	if ok, _ := db.ConsumeInventory(ctx, "alice", domain.InventoryPowerUp, "xp_boost_small"); ok {
		t.Error("consumed a copy that was not owned")
	}
	items, _ = db.Inventory(ctx, "alice")
	if len(items) != 1 || items[0].Kind != domain.InventoryBadge {
		t.Errorf("empty stacks should be hidden, got %+v", items)
	}
}

// ─── Active Power-Ups ───────────────────────────────────────────────────────

func TestActivePowerUps_Expiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	short := domain.ActivePowerUp{PowerUp: domain.PowerUp{ID: "xp_boost_small"}, ExpiresAt: t0.Add(30 * time.Minute)}
	long := domain.ActivePowerUp{PowerUp: domain.PowerUp{ID: "all_boost"}, ExpiresAt: t0.Add(time.Hour)}
	db.InsertActivePowerUp(ctx, "alice", short, t0)
	db.InsertActivePowerUp(ctx, "alice", long, t0)

	if rows, _ := db.ActivePowerUps(ctx, "alice", t0.Add(30*time.Minute)); len(rows) != 2 {
		t.Errorf("at expiry instant both are active, got %d", len(rows))
	}
	rows, _ := db.ActivePowerUps(ctx, "alice", t0.Add(31*time.Minute))
	if len(rows) != 1 || rows[0].PowerUpID != "all_boost" {
		t.Errorf("after 31m = %+v", rows)
	}

	n, err := db.DeleteExpiredPowerUps(ctx, t0.Add(45*time.Minute))
	if err != nil || n != 1 {
		t.Errorf("DeleteExpiredPowerUps = %d, %v", n, err)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	id, err := db.InsertNotification(ctx, domain.Notification{
		UserID: "alice", Type: domain.NotifyLevelUp, Title: "Level 2", Body: "Nice", CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("InsertNotification error: %v", err)
	}

	if n, _ := db.NotificationCountSince(ctx, "alice", t0.Add(-time.Hour)); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	pending, _ := db.PendingNotifications(ctx, "alice", 10)
	if len(pending) != 1 || pending[0].Title != "Level 2" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := db.MarkNotificationShown(ctx, "bob", id); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("other user's notification: %v", err)
	}
	if err := db.MarkNotificationShown(ctx, "alice", id); err != nil {
		t.Fatalf("MarkNotificationShown error: %v", err)
	}
	if pending, _ := db.PendingNotifications(ctx, "alice", 10); len(pending) != 0 {
		t.Errorf("shown notification still pending")
	}
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

func TestLedgerEntriesAndTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	db.InsertLedgerEntry(ctx, domain.LedgerEntry{Timestamp: t0, Type: domain.TxSessionReward,
		EntryType: domain.EntryDebit, Account: domain.SystemPoolAccount, Amount: 50, Balance: -50})
	db.InsertLedgerEntry(ctx, domain.LedgerEntry{Timestamp: t0, Type: domain.TxSessionReward,
		EntryType: domain.EntryCredit, Account: "user:alice", Amount: 50, Reference: "s1", Balance: 50})

	bal, err := db.CoinBalance(ctx, "user:alice")
	if err != nil || bal != 50 {
		t.Errorf("CoinBalance = %d, %v", bal, err)
	}
	if bal, _ := db.CoinBalance(ctx, "user:nobody"); bal != 0 {
		t.Errorf("empty account balance = %d", bal)
	}

	entries, _ := db.LedgerEntries(ctx, "user:alice", 10)
	if len(entries) != 1 || entries[0].Reference != "s1" || !entries[0].Timestamp.Equal(t0) {
		t.Errorf("entries = %+v", entries)
	}

	debits, credits, err := db.LedgerTotals(ctx)
	if err != nil || debits != credits || debits != 50 {
		t.Errorf("totals = %d/%d, %v", debits, credits, err)
	}
}
