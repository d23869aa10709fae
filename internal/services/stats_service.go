package services

import (
	"context"
	"time"

	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/shopspring/decimal"
)

type StatsService struct {
	store   repository.LedgerStore
	cache   *StatsCache
	metrics *metrics.MetricsCollector
	windows []models.StatsWindow
	now     func() time.Time
}

func NewStatsService(store repository.LedgerStore, cache *StatsCache, m *metrics.MetricsCollector) *StatsService {
	return &StatsService{
		store:   store,
		cache:   cache,
		metrics: m,
		windows: models.DefaultStatsWindows,
		now:     time.Now,
	}
}

// ComputeStats returns wagered volume and profit/loss per rolling window.
func (s *StatsService) ComputeStats(ctx context.Context, accountID string) (models.AccountStats, error) {
	// The version is read before the ledger so a cached value is never
	// labelled newer than the entries it was computed from.
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if stats, ok := s.cache.Get(ctx, accountID, account.Version); ok {
		s.metrics.RecordStatsCache(true)
		return stats, nil
	}
	s.metrics.RecordStatsCache(false)

	entries, err := s.store.ListEntries(ctx, accountID, models.KindWagerDebit, models.KindWagerCredit)
	if err != nil {
		return nil, err
	}

	stats := AggregateWagerStats(entries, s.now(), s.windows)
	s.cache.Set(ctx, accountID, account.Version, stats)
	return stats, nil
}

// AggregateWagerStats pairs each debit with the entry right after it and sums
// bets and net results into every window whose cutoff is not after the debit.
// entries must be wager entries sorted by creation time, ties in insertion order.
func AggregateWagerStats(entries []*models.LedgerEntry, now time.Time, windows []models.StatsWindow) models.AccountStats {
	stats := make(models.AccountStats, len(windows))
	cutoffs := make([]time.Time, len(windows))
	for i, w := range windows {
		stats[w.Name] = models.WindowStats{Wagered: decimal.Zero, PnL: decimal.Zero}
		cutoffs[i] = now.Add(-w.Duration)
	}

	for i := 0; i < len(entries); i++ {
		debit := entries[i]
		if !debit.Amount.IsNegative() {
			continue
		}

		bet := debit.Amount.Neg()
		payout := decimal.Zero
		if i+1 < len(entries) && !entries[i+1].CreatedAt.Before(debit.CreatedAt) {
			payout = entries[i+1].Amount
			i++
		}

		for j, w := range windows {
			if cutoffs[j].After(debit.CreatedAt) {
				continue
			}
			ws := stats[w.Name]
			ws.Wagered = ws.Wagered.Add(bet)
			ws.PnL = ws.PnL.Add(payout.Sub(bet))
			stats[w.Name] = ws
		}
	}
	return stats
}
