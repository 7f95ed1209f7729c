// Package health runs periodic self-checks with optional auto-recovery and
// reports them at /health.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

// DefaultInterval is how often checks run.
const DefaultInterval = 60 * time.Second

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	log      zerolog.Logger
}

// NewChecker creates a checker with the standard checks: the database
// answers, the data directory is writable, and the coin ledger balances.
func NewChecker(db *sqlite.DB, dataDir string) *Checker {
	return &Checker{
		interval: DefaultInterval,
		log:      logging.Component("health"),
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
					defer cancel()
					return db.Ping(ctx)
				},
			},
			{
				Name: "data_dir",
				CheckFn: func(ctx context.Context) error {
					return checkWritable(dataDir)
				},
				RecoverFn: func(ctx context.Context) error {
					return os.MkdirAll(dataDir, 0o755)
				},
			},
			{
				Name: "ledger",
				CheckFn: func(ctx context.Context) error {
					debits, credits, err := db.LedgerTotals(ctx)
					if err != nil {
						return err
					}
					if debits != credits {
						return fmt.Errorf("ledger unbalanced: debits %d, credits %d", debits, credits)
					}
					return nil
				},
			},
		},
	}
}

// SetInterval overrides the check interval. Must be called before Run.
func (c *Checker) SetInterval(d time.Duration) {
	if d > 0 {
		c.interval = d
	}
}

// Register adds a check. Must be called before Run.
func (c *Checker) Register(check Check) {
	c.checks = append(c.checks, check)
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check once and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{Name: check.Name, CheckedAt: time.Now()}
		if err := check.CheckFn(ctx); err != nil {
			s.Error = err.Error()
			c.log.Warn().Str("check", check.Name).Err(err).Msg("health check failed")

			if check.RecoverFn != nil {
				metrics.HealthRecoveries.WithLabelValues(check.Name).Inc()
				if rerr := check.RecoverFn(ctx); rerr != nil {
					c.log.Error().Str("check", check.Name).Err(rerr).Msg("recovery failed")
				} else if check.CheckFn(ctx) == nil {
					s.Healthy = true
					s.Error = ""
				}
			}
		} else {
			s.Healthy = true
		}

		if s.Healthy {
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		} else {
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass. Vacuously true before the
// first run.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe := filepath.Join(dir, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	return os.Remove(probe)
}
