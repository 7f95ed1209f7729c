// Package sqlite provides SQLite-based persistent storage for FocusForge.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a SQLite connection with WAL mode and migrations.
// A DB handed to an InTx callback is bound to that transaction.
type DB struct {
	db *sql.DB // nil inside a transaction
	q  querier
}

// Open creates or opens the SQLite database at dir/focusforge.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "focusforge.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer. One connection also means a transaction
	// callback must never touch the outer DB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db, q: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	return d.db.PingContext(ctx)
}

// InTx runs fn inside a single transaction. fn receives a DB bound to the
// transaction; returning an error rolls everything back. Nested calls
// reuse the enclosing transaction.
func (d *DB) InTx(ctx context.Context, fn func(tx *DB) error) error {
	if d.db == nil {
		return fn(d)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&DB{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			total_xp          INTEGER NOT NULL DEFAULT 0,
			streak_current    INTEGER NOT NULL DEFAULT 0,
			streak_longest    INTEGER NOT NULL DEFAULT 0,
			streak_last       INTEGER,
			freeze_used       BOOLEAN NOT NULL DEFAULT 0,
			freeze_week       TEXT NOT NULL DEFAULT '',
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_xp ON users(total_xp)`,

		// Completed focus sessions
		`CREATE TABLE IF NOT EXISTS sessions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id),
			focus_score      REAL NOT NULL,
			duration_seconds INTEGER NOT NULL,
			xp               INTEGER NOT NULL,
			coins            INTEGER NOT NULL,
			completed_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_time ON sessions(user_id, completed_at)`,

		// Coin ledger (double-entry bookkeeping)
		`CREATE TABLE IF NOT EXISTS coin_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			type        TEXT NOT NULL,
			entry_type  TEXT NOT NULL,
			account     TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			reference   TEXT,
			description TEXT,
			balance     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON coin_ledger(account)`,

		// Quests; conditions and rewards are JSON documents
		`CREATE TABLE IF NOT EXISTS quests (
			id          TEXT NOT NULL,
			user_id     TEXT NOT NULL REFERENCES users(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL,
			type        TEXT NOT NULL,
			difficulty  TEXT NOT NULL,
			conditions  TEXT NOT NULL,
			rewards     TEXT NOT NULL,
			start_date  INTEGER NOT NULL,
			end_date    INTEGER NOT NULL,
			status      TEXT NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_end ON quests(status, end_date)`,

		// Unlocked achievements (append-only, one per id per user)
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id     TEXT NOT NULL REFERENCES users(id),
			id          TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,

		// Owned items: purchased power-ups, badges, titles
		`CREATE TABLE IF NOT EXISTS inventory (
			user_id  TEXT NOT NULL REFERENCES users(id),
			kind     TEXT NOT NULL,
			item_id  TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, kind, item_id)
		)`,

		// Activated power-up instances
		`CREATE TABLE IF NOT EXISTS active_powerups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL REFERENCES users(id),
			powerup_id  TEXT NOT NULL,
			activated_at INTEGER NOT NULL,
			expires_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_active_powerups_user ON active_powerups(user_id, expires_at)`,

		// Notification log (policy: daily cap, quiet hours)
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,

		// Completed team challenges
		`CREATE TABLE IF NOT EXISTS team_challenges (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			team         TEXT NOT NULL DEFAULT '',
			completed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_user_time ON team_challenges(user_id, completed_at)`,
	}

	for _, m := range migrations {
		if _, err := d.q.ExecContext(context.Background(), m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Times are stored as Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func nullableMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
