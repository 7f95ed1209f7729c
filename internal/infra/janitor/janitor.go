// Package janitor runs scheduled housekeeping over the store: quests whose
// window closed while still active are marked failed, and expired power-up
// instances are deleted. Reads already filter by time, so a missed run only
// delays cleanup.
package janitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

// DefaultSchedule runs every five minutes (six-field cron, seconds first).
const DefaultSchedule = "0 */5 * * * *"

// Options configures a Janitor. Zero values fall back to defaults.
type Options struct {
	Schedule string
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// Result reports what one run changed.
type Result struct {
	QuestsFailed    int64 `json:"quests_failed"`
	PowerUpsExpired int64 `json:"power_ups_expired"`
}

// Janitor owns the cron scheduler for housekeeping jobs.
type Janitor struct {
	db       *sqlite.DB
	schedule string
	now      func() time.Time
	log      zerolog.Logger

	mu   sync.Mutex
	cron *rcron.Cron
}

// New creates a janitor. Call Start to schedule it.
func New(db *sqlite.DB, opts Options) *Janitor {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logging.Component("janitor")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Janitor{db: db, schedule: opts.Schedule, now: opts.Now, log: log}
}

// Start schedules RunOnce and returns immediately. The scheduler stops when
// ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return fmt.Errorf("janitor already started")
	}

	c := rcron.New(rcron.WithSeconds())
	if _, err := c.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error().Err(err).Msg("housekeeping failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.cron = c
	j.log.Info().Str("schedule", j.schedule).Msg("janitor started")

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	j.log.Info().Msg("janitor stopped")
}

// RunOnce performs one housekeeping pass in a single transaction.
func (j *Janitor) RunOnce(ctx context.Context) (Result, error) {
	now := j.now()
	var res Result
	err := j.db.InTx(ctx, func(tx *sqlite.DB) error {
		n, err := tx.FailExpiredQuests(ctx, now)
		if err != nil {
			return fmt.Errorf("fail expired quests: %w", err)
		}
		res.QuestsFailed = n

		n, err = tx.DeleteExpiredPowerUps(ctx, now)
		if err != nil {
			return fmt.Errorf("delete expired power-ups: %w", err)
		}
		res.PowerUpsExpired = n
		return nil
	})
	if err != nil {
		metrics.JanitorRuns.WithLabelValues("error").Inc()
		return Result{}, err
	}

	metrics.JanitorRuns.WithLabelValues("ok").Inc()
	metrics.QuestsFailed.Add(float64(res.QuestsFailed))
	metrics.PowerUpsExpired.Add(float64(res.PowerUpsExpired))
	if res.QuestsFailed > 0 || res.PowerUpsExpired > 0 {
		j.log.Info().Int64("quests_failed", res.QuestsFailed).Int64("powerups_expired", res.PowerUpsExpired).Msg("housekeeping")
	}
	return res, nil
}
