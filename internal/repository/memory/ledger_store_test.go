package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credit(ctx context.Context, tx repository.AccountTx, amount decimal.Decimal, at time.Time) error {
	tx.Account().Balance = tx.Account().Balance.Add(amount)
	if err := tx.AppendEntry(ctx, &models.LedgerEntry{
		AccountID: tx.Account().ID,
		Kind:      models.KindAdjustment,
		Amount:    amount,
		Status:    models.StatusCompleted,
		CreatedAt: at,
	}); err != nil {
		return err
	}
	return tx.SaveAccount(ctx)
}

func TestLedgerStore_InAccountTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit makes writes visible", func(t *testing.T) {
		store := NewLedgerStore()
		_, err := store.CreateAccount(ctx, "acc-1")
		require.NoError(t, err)

		var entry *models.LedgerEntry
		err = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
			tx.Account().Balance = decimal.NewFromInt(5)
			entry = &models.LedgerEntry{AccountID: "acc-1", Kind: models.KindAdjustment, Amount: decimal.NewFromInt(5), CreatedAt: time.Now()}
			if err := tx.AppendEntry(ctx, entry); err != nil {
				return err
			}
			return tx.SaveAccount(ctx)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), entry.ID)

		account, err := store.GetAccount(ctx, "acc-1")
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, 1, account.Version)
	})

	t.Run("error discards staged writes", func(t *testing.T) {
		store := NewLedgerStore()
		_, err := store.CreateAccount(ctx, "acc-1")
		require.NoError(t, err)

		boom := errors.New("boom")
		err = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
			if err := credit(ctx, tx, decimal.NewFromInt(10), time.Now()); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		account, err := store.GetAccount(ctx, "acc-1")
		require.NoError(t, err)
		assert.True(t, account.Balance.IsZero())
		entries, err := store.ListEntries(ctx, "acc-1")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("mutating the account without committing leaks nothing", func(t *testing.T) {
		store := NewLedgerStore()
		_, err := store.CreateAccount(ctx, "acc-1")
		require.NoError(t, err)

		_ = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
			tx.Account().Balance = decimal.NewFromInt(99)
			return errors.New("abort")
		})

		account, err := store.GetAccount(ctx, "acc-1")
		require.NoError(t, err)
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("unknown account", func(t *testing.T) {
		store := NewLedgerStore()
		err := store.InAccountTx(ctx, "ghost", func(ctx context.Context, tx repository.AccountTx) error { return nil })
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("entries for another account are refused", func(t *testing.T) {
		store := NewLedgerStore()
		_, err := store.CreateAccount(ctx, "acc-1")
		require.NoError(t, err)

		err = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
			return tx.AppendEntry(ctx, &models.LedgerEntry{AccountID: "acc-2", Amount: decimal.NewFromInt(1)})
		})
		assert.ErrorIs(t, err, models.ErrLedgerWriteFailure)
	})

	t.Run("duplicate account", func(t *testing.T) {
		store := NewLedgerStore()
		_, err := store.CreateAccount(ctx, "acc-1")
		require.NoError(t, err)
		_, err = store.CreateAccount(ctx, "acc-1")
		assert.Error(t, err)
	})
}

func TestLedgerStore_ConcurrentWritersStayReconciled(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()
	for _, id := range []string{"acc-1", "acc-2"} {
		_, err := store.CreateAccount(ctx, id)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "acc-1"
			if i%2 == 1 {
				id = "acc-2"
			}
			err := store.InAccountTx(ctx, id, func(ctx context.Context, tx repository.AccountTx) error {
				return credit(ctx, tx, decimal.RequireFromString("0.01"), time.Now())
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"acc-1", "acc-2"} {
		balance, sum, err := store.BalanceAndLedgerSum(ctx, id)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.RequireFromString("0.5")), "%s balance %s", id, balance)
		assert.True(t, balance.Equal(sum))
	}
}

func TestLedgerStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()
	_, err := store.CreateAccount(ctx, "acc-1")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var pending *models.LedgerEntry
	err = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
		for _, e := range []*models.LedgerEntry{
			{AccountID: "acc-1", Kind: models.KindWagerDebit, Amount: decimal.NewFromInt(-1), CreatedAt: base.Add(time.Minute)},
			{AccountID: "acc-1", Kind: models.KindWagerCredit, Amount: decimal.Zero, CreatedAt: base.Add(time.Minute)},
			{AccountID: "acc-1", Kind: models.KindAdjustment, Amount: decimal.NewFromInt(10), CreatedAt: base},
			{AccountID: "acc-1", Kind: models.KindRedemption, Amount: decimal.NewFromInt(-2), Status: models.StatusPending, CreatedAt: base.Add(2 * time.Minute)},
		} {
			if err := tx.AppendEntry(ctx, e); err != nil {
				return err
			}
			if e.Kind == models.KindRedemption {
				pending = e
			}
		}
		tx.Account().Balance = decimal.NewFromInt(7)
		return tx.SaveAccount(ctx)
	})
	require.NoError(t, err)
	pendingID := pending.ID
	require.NotZero(t, pendingID)

	t.Run("list orders by time then insertion", func(t *testing.T) {
		entries, err := store.ListEntries(ctx, "acc-1")
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, models.KindAdjustment, entries[0].Kind)
		assert.Equal(t, models.KindWagerDebit, entries[1].Kind)
		assert.Equal(t, models.KindWagerCredit, entries[2].Kind)
		assert.Equal(t, models.KindRedemption, entries[3].Kind)
	})

	t.Run("list filters by kind", func(t *testing.T) {
		entries, err := store.ListEntries(ctx, "acc-1", models.KindWagerDebit, models.KindWagerCredit)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		entries, err := store.RecentEntries(ctx, "acc-1", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.KindRedemption, entries[0].Kind)
		assert.Equal(t, models.KindWagerCredit, entries[1].Kind)
	})

	t.Run("pending redemptions and status changes", func(t *testing.T) {
		pending, err := store.PendingRedemptions(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		err = store.InAccountTx(ctx, "acc-1", func(ctx context.Context, tx repository.AccountTx) error {
			locked, err := tx.LockEntry(ctx, pendingID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, locked.Status)
			if err := tx.SetEntryStatus(ctx, pendingID, models.StatusCompleted); err != nil {
				return err
			}
			locked, err = tx.LockEntry(ctx, pendingID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCompleted, locked.Status)
			return nil
		})
		require.NoError(t, err)

		pending, err = store.PendingRedemptions(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("returned entries are copies", func(t *testing.T) {
		entries, err := store.ListEntries(ctx, "acc-1")
		require.NoError(t, err)
		entries[0].Amount = decimal.NewFromInt(1000)

		balance, sum, err := store.BalanceAndLedgerSum(ctx, "acc-1")
		require.NoError(t, err)
		assert.True(t, balance.Equal(sum))
	})
}
