package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore keeps accounts and the append-only ledger in process memory.
// Writers are serialized per account; a commit is applied under the store
// write lock so readers always observe whole units of work.
type LedgerStore struct {
	mu        sync.RWMutex
	accounts  map[string]*models.Account
	entries   []*models.LedgerEntry
	byID      map[int64]*models.LedgerEntry
	byAccount map[string][]*models.LedgerEntry
	nextID    int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts:  make(map[string]*models.Account),
		byID:      make(map[int64]*models.LedgerEntry),
		byAccount: make(map[string][]*models.LedgerEntry),
		locks:     make(map[string]*sync.Mutex),
	}
}

// CreateAccount registers an account with a zero balance.
func (s *LedgerStore) CreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[accountID]; exists {
		return nil, fmt.Errorf("account %s already exists", accountID)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           accountID,
		Balance:      decimal.Zero,
		TotalWagered: decimal.Zero,
		VIPTier:      "None",
		BonusDue:     decimal.Zero,
		ClaimAmount:  decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[accountID] = account
	return account.Clone(), nil
}

func (s *LedgerStore) accountLock(accountID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	return l
}

func (s *LedgerStore) InAccountTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx repository.AccountTx) error) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	account, ok := s.accounts[accountID]
	if ok {
		account = account.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}

	tx := &accountTx{
		store:    s,
		account:  account,
		statuses: make(map[int64]models.EntryStatus),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *LedgerStore) commit(tx *accountTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.dirty {
		s.accounts[tx.account.ID] = tx.account.Clone()
	}
	for _, e := range tx.staged {
		s.nextID++
		e.ID = s.nextID
		stored := copyEntry(e)
		s.entries = append(s.entries, stored)
		s.byID[stored.ID] = stored
		s.byAccount[stored.AccountID] = append(s.byAccount[stored.AccountID], stored)
	}
	for id, status := range tx.statuses {
		if e, ok := s.byID[id]; ok {
			e.Status = status
		}
	}
}

func (s *LedgerStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}
	return account.Clone(), nil
}

func (s *LedgerStore) GetEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrEntryNotFound, entryID)
	}
	return copyEntry(e), nil
}

func (s *LedgerStore) ListEntries(ctx context.Context, accountID string, kinds ...models.EntryKind) ([]*models.LedgerEntry, error) {
	want := make(map[models.EntryKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	s.mu.RLock()
	var result []*models.LedgerEntry
	for _, e := range s.byAccount[accountID] {
		if len(want) == 0 || want[e.Kind] {
			result = append(result, copyEntry(e))
		}
	}
	s.mu.RUnlock()

	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *LedgerStore) RecentEntries(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	all, err := s.ListEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.LedgerEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

func (s *LedgerStore) PendingRedemptions(ctx context.Context) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	var result []*models.LedgerEntry
	for _, e := range s.entries {
		if e.Kind == models.KindRedemption && e.Status == models.StatusPending {
			result = append(result, copyEntry(e))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *LedgerStore) BalanceAndLedgerSum(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", models.ErrAccountNotFound, accountID)
	}

	sum := decimal.Zero
	for _, e := range s.byAccount[accountID] {
		sum = sum.Add(e.Amount)
	}
	return account.Balance, sum, nil
}

type accountTx struct {
	store    *LedgerStore
	account  *models.Account
	dirty    bool
	staged   []*models.LedgerEntry
	statuses map[int64]models.EntryStatus
}

func (tx *accountTx) Account() *models.Account {
	return tx.account
}

func (tx *accountTx) SaveAccount(ctx context.Context) error {
	tx.account.Version++
	tx.account.UpdatedAt = time.Now().UTC()
	tx.dirty = true
	return nil
}

func (tx *accountTx) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.AccountID != tx.account.ID {
		return fmt.Errorf("%w: entry for %s appended under account %s", models.ErrLedgerWriteFailure, entry.AccountID, tx.account.ID)
	}
	tx.staged = append(tx.staged, entry)
	return nil
}

func (tx *accountTx) LockEntry(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	tx.store.mu.RLock()
	e, ok := tx.store.byID[entryID]
	if ok {
		e = copyEntry(e)
	}
	tx.store.mu.RUnlock()

	if !ok || e.AccountID != tx.account.ID {
		return nil, fmt.Errorf("%w: %d", models.ErrEntryNotFound, entryID)
	}
	if status, staged := tx.statuses[entryID]; staged {
		e.Status = status
	}
	return e, nil
}

func (tx *accountTx) SetEntryStatus(ctx context.Context, entryID int64, status models.EntryStatus) error {
	if _, err := tx.LockEntry(ctx, entryID); err != nil {
		return err
	}
	tx.statuses[entryID] = status
	return nil
}

func copyEntry(e *models.LedgerEntry) *models.LedgerEntry {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(models.Metadata, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
