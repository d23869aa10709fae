package repository

import (
	"context"

	"github.com/betablockz/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AccountTx is a unit of work holding one account exclusively. Nothing it
// writes is visible to other callers until the surrounding InAccountTx commits.
type AccountTx interface {
	// Account returns the locked account. Mutate it and call SaveAccount to persist.
	Account() *models.Account
	SaveAccount(ctx context.Context) error
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
	LockEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error)
	SetEntryStatus(ctx context.Context, entryID int64, status models.EntryStatus) error
}

type LedgerStore interface {
	// InAccountTx runs fn with the account locked. A non-nil error from fn
	// discards every staged write; otherwise all writes commit together.
	InAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx AccountTx) error) error

	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error)

	// ListEntries returns the account's entries of the given kinds ordered by
	// creation time, ties broken by insertion order, read from one snapshot.
	ListEntries(ctx context.Context, accountID string, kinds ...models.EntryKind) ([]*models.LedgerEntry, error)
	RecentEntries(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)
	PendingRedemptions(ctx context.Context) ([]*models.LedgerEntry, error)

	// BalanceAndLedgerSum reads the stored balance and the sum of all entry
	// amounts for the account from the same snapshot.
	BalanceAndLedgerSum(ctx context.Context, accountID string) (balance, sum decimal.Decimal, err error)
}
