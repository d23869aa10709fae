package services

import (
	"context"
	"testing"
	"time"

	"github.com/betablockz/backend/internal/audit"
	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/betablockz/backend/internal/repository/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newSeededStore returns a memory store holding one account funded through
// the ledger, so the reconciliation invariant holds from the start.
func newSeededStore(t *testing.T, accountID string, balance string) *memory.LedgerStore {
	t.Helper()
	store := memory.NewLedgerStore()
	ctx := context.Background()

	_, err := store.CreateAccount(ctx, accountID)
	require.NoError(t, err)

	amount := decimal.RequireFromString(balance)
	if amount.IsZero() {
		return store
	}
	err = store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		tx.Account().Balance = amount
		if err := tx.AppendEntry(ctx, &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindAdjustment,
			Amount:    amount,
			Status:    models.StatusCompleted,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}); err != nil {
			return err
		}
		return tx.SaveAccount(ctx)
	})
	require.NoError(t, err)
	return store
}

func requireReconciled(t *testing.T, store repository.LedgerStore, accountID string) {
	t.Helper()
	balance, sum, err := store.BalanceAndLedgerSum(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, balance.Equal(sum), "balance %s != ledger sum %s", balance, sum)
	require.False(t, balance.IsNegative())
}

func newTestWagerService(store repository.LedgerStore, rng RandomSource) *WagerService {
	return NewWagerService(store, NewOutcomeEngine(rng, DefaultHouseEdge), NewStatsCache(nil, 0),
		metrics.NewMetricsCollector(), audit.NewAuditLogger(zerolog.Nop()), zerolog.Nop(), decimal.Zero)
}
