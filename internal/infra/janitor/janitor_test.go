package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

var now = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func newTestJanitor(t *testing.T, schedule string) (*Janitor, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	nop := logging.Nop()
	return New(db, Options{Schedule: schedule, Now: func() time.Time { return now }, Logger: &nop}), db
}

func seed(t *testing.T, db *sqlite.DB) {
	t.Helper()
	ctx := context.Background()
	if err := db.CreateUser(ctx, domain.User{ID: "u1", Name: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("user: %v", err)
	}

	// Yesterday's dailies are expired, today's are not.
	for _, q := range append(gamification.GenerateDaily(now.Add(-24*time.Hour), 0), gamification.GenerateDaily(now, 0)...) {
		q.UserID = "u1"
		if _, err := db.InsertQuest(ctx, q); err != nil {
			t.Fatalf("quest: %v", err)
		}
	}

	p, _ := gamification.GetPowerUp("xp_boost_small")
	for _, at := range []time.Time{now.Add(-2 * time.Hour), now.Add(-10 * time.Minute)} {
		if _, err := db.InsertActivePowerUp(ctx, "u1", gamification.Activate(p, at), at); err != nil {
			t.Fatalf("powerup: %v", err)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RunOnce
// ═══════════════════════════════════════════════════════════════════════════

func TestRunOnce(t *testing.T) {
	j, db := newTestJanitor(t, "")
	seed(t, db)
	ok := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("ok"))

	res, err := j.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.QuestsFailed != 2 {
		t.Errorf("quests failed = %d, want 2", res.QuestsFailed)
	}
	if res.PowerUpsExpired != 1 {
		t.Errorf("power-ups expired = %d, want 1", res.PowerUpsExpired)
	}
	if got := testutil.ToFloat64(metrics.JanitorRuns.WithLabelValues("ok")); got != ok+1 {
		t.Errorf("ok runs = %v, want %v", got, ok+1)
	}

	// Idempotent.
	res, err = j.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res != (Result{}) {
		t.Errorf("second run changed %+v", res)
	}

	active, err := db.ActivePowerUps(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("active = %d, want 1", len(active))
	}
}

func TestRunOnce_LeavesCompletedQuests(t *testing.T) {
	j, db := newTestJanitor(t, "")
	ctx := context.Background()
	if err := db.CreateUser(ctx, domain.User{ID: "u1", Name: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("user: %v", err)
	}
	q := gamification.GenerateDaily(now.Add(-24*time.Hour), 0)[0]
	q.UserID = "u1"
	q.Status = domain.QuestCompleted
	if _, err := db.InsertQuest(ctx, q); err != nil {
		t.Fatalf("quest: %v", err)
	}

	res, err := j.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.QuestsFailed != 0 {
		t.Errorf("completed quest was failed")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scheduling
// ═══════════════════════════════════════════════════════════════════════════

func TestStart_InvalidSchedule(t *testing.T) {
	j, _ := newTestJanitor(t, "every tuesday")
	if err := j.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStart_RunsOnSchedule(t *testing.T) {
	j, db := newTestJanitor(t, "* * * * * *")
	seed(t, db)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := j.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Start(ctx); err == nil {
		t.Error("expected error on double start")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		active, err := db.ActivePowerUps(ctx, "u1", now.Add(-24*time.Hour))
		if err == nil && len(active) == 1 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	j.Stop()

	active, err := db.ActivePowerUps(context.Background(), "u1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("scheduled run did not clean up: %d instances left", len(active))
	}
	j.Stop() // no-op
}
