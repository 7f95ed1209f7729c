// Package wallet implements the double-entry coin ledger.
// Every coin movement creates matched DEBIT/CREDIT entries, so
// SUM(debits) == SUM(credits) is an invariant. A user's balance never
// goes negative.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
)

// Service manages the coin economy.
type Service struct {
	db  *sqlite.DB
	now func() time.Time
}

// NewService creates a wallet service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// With returns a copy of the service bound to db, typically a transaction
// handed out by sqlite.DB.InTx.
func (s *Service) With(db *sqlite.DB) *Service {
	return &Service{db: db, now: s.now}
}

// Balance returns a user's current coin balance.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.db.CoinBalance(ctx, domain.UserAccount(userID))
}

// History returns a user's recent ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.db.LedgerEntries(ctx, domain.UserAccount(userID), limit)
}

// Earn credits coins to a user from the system pool.
func (s *Service) Earn(ctx context.Context, userID string, amount int64, tx domain.TransactionType, ref, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("earn amount must be positive, got %d", amount)
	}
	return s.transfer(ctx, domain.SystemPoolAccount, domain.UserAccount(userID), amount, tx, ref, reason)
}

// Spend moves coins from a user to the shop. Fails with
// domain.ErrInsufficientFunds when the balance does not cover amount.
func (s *Service) Spend(ctx context.Context, userID string, amount int64, ref, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("spend amount must be positive, got %d", amount)
	}

	account := domain.UserAccount(userID)
	bal, err := s.db.CoinBalance(ctx, account)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if bal < amount {
		return fmt.Errorf("have %d, need %d: %w", bal, amount, domain.ErrInsufficientFunds)
	}
	return s.transfer(ctx, account, domain.ShopAccount, amount, domain.TxPurchase, ref, reason)
}

// transfer writes the DEBIT on from and the CREDIT on to.
func (s *Service) transfer(ctx context.Context, from, to string, amount int64, tx domain.TransactionType, ref, reason string) error {
	now := s.now()

	fromBal, err := s.db.CoinBalance(ctx, from)
	if err != nil {
		return fmt.Errorf("get %s balance: %w", from, err)
	}
	toBal, err := s.db.CoinBalance(ctx, to)
	if err != nil {
		return fmt.Errorf("get %s balance: %w", to, err)
	}

	_, err = s.db.InsertLedgerEntry(ctx, domain.LedgerEntry{
		Timestamp:   now,
		Type:        tx,
		EntryType:   domain.EntryDebit,
		Account:     from,
		Amount:      amount,
		Reference:   ref,
		Description: reason,
		Balance:     fromBal - amount,
	})
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}

	_, err = s.db.InsertLedgerEntry(ctx, domain.LedgerEntry{
		Timestamp:   now,
		Type:        tx,
		EntryType:   domain.EntryCredit,
		Account:     to,
		Amount:      amount,
		Reference:   ref,
		Description: reason,
		Balance:     toBal + amount,
	})
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}
