package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Coin Ledger ────────────────────────────────────────────────────────────

// InsertLedgerEntry adds a coin ledger entry.
func (d *DB) InsertLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (int64, error) {
	result, err := d.q.ExecContext(ctx,
		`INSERT INTO coin_ledger (timestamp, type, entry_type, account, amount, reference, description, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		toMillis(entry.Timestamp), string(entry.Type), string(entry.EntryType),
		entry.Account, entry.Amount, nullStr(entry.Reference), nullStr(entry.Description), entry.Balance,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CoinBalance returns the current balance for an account.
func (d *DB) CoinBalance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := d.q.QueryRowContext(ctx,
		`SELECT balance FROM coin_ledger WHERE account = ? ORDER BY id DESC LIMIT 1`,
		account,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

// LedgerEntries returns recent ledger entries for an account, newest first.
func (d *DB) LedgerEntries(ctx context.Context, account string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT id, timestamp, type, entry_type, account, amount, reference, description, balance
		 FROM coin_ledger WHERE account = ? ORDER BY id DESC LIMIT ?`,
		account, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var ts int64
		var ref, desc sql.NullString
		err := rows.Scan(&e.ID, &ts, &e.Type, &e.EntryType, &e.Account,
			&e.Amount, &ref, &desc, &e.Balance)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(ts)
		e.Reference = ref.String
		e.Description = desc.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LedgerTotals returns SUM(amount) per entry type across all accounts.
func (d *DB) LedgerTotals(ctx context.Context) (debits, credits int64, err error) {
	err = d.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN entry_type = 'DEBIT' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE 0 END), 0)
		 FROM coin_ledger`,
	).Scan(&debits, &credits)
	return debits, credits, err
}
