package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

const (
	accountColumns = `id, balance, total_wagered, vip_tier, bonus_due, claim_code_hash, claim_amount, claim_claimed_at, version, created_at, updated_at`
	entryColumns   = `id, account_id, kind, amount, metadata, status, created_at`
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// InAccountTx wraps fn in a database transaction holding a row lock on the account.
func (s *LedgerStore) InAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx repository.AccountTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", models.ErrLedgerWriteFailure, err)
	}
	defer tx.Rollback()

	account, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return err
	}

	if err := fn(ctx, &accountTx{tx: tx, account: account}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", models.ErrLedgerWriteFailure, err)
	}
	return nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, accountID string) (*models.Account, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable {
		return nil, fmt.Errorf("%w: account %s is locked by another request", models.ErrLedgerWriteFailure, accountID)
	}
	return account, err
}

// lockNotAvailable is raised when the session lock_timeout expires.
const lockNotAvailable = pq.ErrorCode("55P03")

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account   models.Account
		codeHash  sql.NullString
		claimedAt sql.NullTime
	)
	err := row.Scan(&account.ID, &account.Balance, &account.TotalWagered, &account.VIPTier, &account.BonusDue,
		&codeHash, &account.ClaimAmount, &claimedAt, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if codeHash.Valid {
		account.ClaimCodeHash = &codeHash.String
	}
	if claimedAt.Valid {
		account.ClaimClaimedAt = &claimedAt.Time
	}
	return &account, nil
}

func scanEntry(row rowScanner) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	if err := row.Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.Metadata, &e.Status, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*models.LedgerEntry, error) {
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *LedgerStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}
	return account, err
}

func (s *LedgerStore) GetEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrEntryNotFound, entryID)
	}
	return e, err
}

// ListEntries reads inside a read-only REPEATABLE READ transaction so a
// wager committing mid-scan is seen either whole or not at all.
func (s *LedgerStore) ListEntries(ctx context.Context, accountID string, kinds ...models.EntryKind) ([]*models.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var rows *sql.Rows
	if len(kinds) == 0 {
		rows, err = tx.QueryContext(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			ORDER BY created_at ASC, id ASC`, accountID)
	} else {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		rows, err = tx.QueryContext(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1 AND kind = ANY($2)
			ORDER BY created_at ASC, id ASC`, accountID, pq.Array(names))
	}
	if err != nil {
		return nil, err
	}

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	return entries, tx.Commit()
}

func (s *LedgerStore) RecentEntries(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (s *LedgerStore) PendingRedemptions(ctx context.Context) ([]*models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE kind = $1 AND status = $2
		ORDER BY created_at ASC, id ASC`, models.KindRedemption, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (s *LedgerStore) BalanceAndLedgerSum(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var sum decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return balance, sum, tx.Commit()
}

type accountTx struct {
	tx      *sql.Tx
	account *models.Account
}

func (a *accountTx) Account() *models.Account {
	return a.account
}

func (a *accountTx) SaveAccount(ctx context.Context) error {
	now := time.Now().UTC()

	var codeHash sql.NullString
	if a.account.ClaimCodeHash != nil {
		codeHash = sql.NullString{String: *a.account.ClaimCodeHash, Valid: true}
	}
	var claimedAt sql.NullTime
	if a.account.ClaimClaimedAt != nil {
		claimedAt = sql.NullTime{Time: *a.account.ClaimClaimedAt, Valid: true}
	}

	result, err := a.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, total_wagered = $2, vip_tier = $3, bonus_due = $4, claim_code_hash = $5,
			claim_amount = $6, claim_claimed_at = $7, version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10`,
		a.account.Balance, a.account.TotalWagered, a.account.VIPTier, a.account.BonusDue, codeHash,
		a.account.ClaimAmount, claimedAt, now, a.account.ID, a.account.Version)
	if err != nil {
		return fmt.Errorf("%w: update account: %v", models.ErrLedgerWriteFailure, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update account: %v", models.ErrLedgerWriteFailure, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: optimistic lock failed for account %s", models.ErrLedgerWriteFailure, a.account.ID)
	}

	a.account.Version++
	a.account.UpdatedAt = now
	return nil
}

func (a *accountTx) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.AccountID != a.account.ID {
		return fmt.Errorf("%w: entry for %s appended under account %s", models.ErrLedgerWriteFailure, entry.AccountID, a.account.ID)
	}

	err := a.tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (account_id, kind, amount, metadata, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.AccountID, entry.Kind, entry.Amount, entry.Metadata, entry.Status, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("%w: insert %s entry: %v", models.ErrLedgerWriteFailure, entry.Kind, err)
	}
	return nil
}

func (a *accountTx) LockEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	row := a.tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE id = $1 AND account_id = $2
		FOR UPDATE`, entryID, a.account.ID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrEntryNotFound, entryID)
	}
	return e, err
}

func (a *accountTx) SetEntryStatus(ctx context.Context, entryID int64, status models.EntryStatus) error {
	_, err := a.tx.ExecContext(ctx, `UPDATE ledger_entries SET status = $1 WHERE id = $2 AND account_id = $3`,
		status, entryID, a.account.ID)
	if err != nil {
		return fmt.Errorf("%w: update entry status: %v", models.ErrLedgerWriteFailure, err)
	}
	return nil
}
