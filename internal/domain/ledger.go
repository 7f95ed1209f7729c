package domain

import "time"

// ─── Coin Ledger ────────────────────────────────────────────────────────────
// Double-entry: every movement writes a DEBIT on the source account and a
// CREDIT on the destination. SUM(debits) == SUM(credits) always holds.

// TransactionType is the business reason for a coin movement.
type TransactionType string

const (
	TxSessionReward TransactionType = "SESSION_REWARD"
	TxQuestReward   TransactionType = "QUEST_REWARD"
	TxLevelUp       TransactionType = "LEVEL_UP"
	TxPurchase      TransactionType = "PURCHASE"
)

// EntryType is the side of a double-entry pair.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// Well-known ledger accounts.
const (
	SystemPoolAccount = "system_pool" // source of all earned coins
	ShopAccount       = "shop"        // sink for purchases
)

// UserAccount returns the ledger account of a user's coin wallet.
func UserAccount(userID string) string {
	return "user:" + userID
}

// LedgerEntry is one side of a coin movement. Balance is the running
// balance of Account after this entry.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TransactionType `json:"type"`
	EntryType   EntryType       `json:"entry_type"`
	Account     string          `json:"account"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	Balance     int64           `json:"balance"`
}
