package services

import (
	"context"
	"testing"
	"time"

	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wagerEntry(kind models.EntryKind, amount string, at time.Time) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID: "acc-1",
		Kind:      kind,
		Amount:    d(amount),
		Status:    models.StatusCompleted,
		CreatedAt: at,
	}
}

func assertWindow(t *testing.T, stats models.AccountStats, window, wagered, pnl string) {
	t.Helper()
	ws, ok := stats[window]
	require.True(t, ok, "missing window %s", window)
	assert.True(t, ws.Wagered.Equal(d(wagered)), "%s wagered: got %s want %s", window, ws.Wagered, wagered)
	assert.True(t, ws.PnL.Equal(d(pnl)), "%s pnl: got %s want %s", window, ws.PnL, pnl)
}

func TestAggregateWagerStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("debit followed by credit", func(t *testing.T) {
		at := now.Add(-time.Hour)
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerDebit, "-10", at),
			wagerEntry(models.KindWagerCredit, "18", at),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "10", "8")
		assertWindow(t, stats, models.WindowLast7d, "10", "8")
		assertWindow(t, stats, models.WindowLast30d, "10", "8")
	})

	t.Run("unpaired trailing debit counts as a loss", func(t *testing.T) {
		at := now.Add(-time.Hour)
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerDebit, "-10", at),
			wagerEntry(models.KindWagerCredit, "18", at),
			wagerEntry(models.KindWagerDebit, "-4", at.Add(time.Minute)),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "14", "4")
	})

	t.Run("zero credit terminates a lost wager", func(t *testing.T) {
		at := now.Add(-2 * time.Hour)
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerDebit, "-3", at),
			wagerEntry(models.KindWagerCredit, "0", at),
			wagerEntry(models.KindWagerDebit, "-2", at.Add(time.Second)),
			wagerEntry(models.KindWagerCredit, "9", at.Add(time.Second)),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "5", "4")
	})

	t.Run("windows only include debits at or after their cutoff", func(t *testing.T) {
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerDebit, "-5", now.Add(-20*24*time.Hour)),
			wagerEntry(models.KindWagerCredit, "0", now.Add(-20*24*time.Hour)),
			wagerEntry(models.KindWagerDebit, "-7", now.Add(-3*24*time.Hour)),
			wagerEntry(models.KindWagerCredit, "14", now.Add(-3*24*time.Hour)),
			wagerEntry(models.KindWagerDebit, "-1", now.Add(-24*time.Hour)),
			wagerEntry(models.KindWagerCredit, "2", now.Add(-24*time.Hour)),
			wagerEntry(models.KindWagerDebit, "-100", now.Add(-31*24*time.Hour)),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "1", "1")
		assertWindow(t, stats, models.WindowLast7d, "8", "8")
		assertWindow(t, stats, models.WindowLast30d, "13", "3")
	})

	t.Run("credit dated before its debit is not paired", func(t *testing.T) {
		at := now.Add(-time.Hour)
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerDebit, "-10", at),
			wagerEntry(models.KindWagerCredit, "18", at.Add(-time.Second)),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "10", "-10")
	})

	t.Run("leading credit is never a starting point", func(t *testing.T) {
		at := now.Add(-time.Hour)
		stats := AggregateWagerStats([]*models.LedgerEntry{
			wagerEntry(models.KindWagerCredit, "50", at),
			wagerEntry(models.KindWagerDebit, "-1", at),
			wagerEntry(models.KindWagerCredit, "0", at),
		}, now, models.DefaultStatsWindows)

		assertWindow(t, stats, models.WindowLast24h, "1", "-1")
	})

	t.Run("empty ledger yields zeroed windows", func(t *testing.T) {
		stats := AggregateWagerStats(nil, now, models.DefaultStatsWindows)

		require.Len(t, stats, 3)
		assertWindow(t, stats, models.WindowLast30d, "0", "0")
	})
}

func TestStatsService_ComputeStats(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, "acc-1", "100")
	wagers := newTestWagerService(store, NewFixedSource(0.2, 0.99))

	_, err := wagers.PlaceWager(ctx, "acc-1", models.WagerRequest{Game: models.GameDice, Bet: d("10"), Target: 50})
	require.NoError(t, err)
	_, err = wagers.PlaceWager(ctx, "acc-1", models.WagerRequest{Game: models.GameDice, Bet: d("4"), Target: 50})
	require.NoError(t, err)

	service := NewStatsService(store, NewStatsCache(nil, 0), metrics.NewMetricsCollector())
	stats, err := service.ComputeStats(ctx, "acc-1")
	require.NoError(t, err)

	// +8 on the win, -4 on the loss; the funding adjustment is not a wager
	assertWindow(t, stats, models.WindowLast24h, "14", "4")
	assertWindow(t, stats, models.WindowLast30d, "14", "4")
}

// snapshotCountingStore records which kinds the stats engine asks for.
type snapshotCountingStore struct {
	repository.LedgerStore
	kinds []models.EntryKind
}

func (s *snapshotCountingStore) ListEntries(ctx context.Context, accountID string, kinds ...models.EntryKind) ([]*models.LedgerEntry, error) {
	s.kinds = kinds
	return s.LedgerStore.ListEntries(ctx, accountID, kinds...)
}

func TestStatsService_ReadsOnlyWagerEntries(t *testing.T) {
	store := &snapshotCountingStore{LedgerStore: newSeededStore(t, "acc-1", "1")}
	service := NewStatsService(store, nil, nil)

	_, err := service.ComputeStats(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.EntryKind{models.KindWagerDebit, models.KindWagerCredit}, store.kinds)
}
