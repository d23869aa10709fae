package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCache(t *testing.T) {
	ctx := context.Background()
	stats := models.AccountStats{
		models.WindowLast24h: {Wagered: d("10"), PnL: d("8")},
	}
	raw, err := json.Marshal(cachedStats{Version: 3, Stats: stats})
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewStatsCache(client, 30*time.Second)

		mock.ExpectGet("stats:acc-1").SetVal(string(raw))

		got, ok := cache.Get(ctx, "acc-1", 3)
		require.True(t, ok)
		assert.True(t, got[models.WindowLast24h].PnL.Equal(d("8")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entry from another account version is a miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewStatsCache(client, 30*time.Second)

		mock.ExpectGet("stats:acc-1").SetVal(string(raw))

		_, ok := cache.Get(ctx, "acc-1", 4)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewStatsCache(client, 30*time.Second)

		mock.ExpectGet("stats:acc-1").RedisNil()

		_, ok := cache.Get(ctx, "acc-1", 3)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set and invalidate", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewStatsCache(client, 30*time.Second)

		mock.ExpectSet("stats:acc-1", raw, 30*time.Second).SetVal("OK")
		mock.ExpectDel("stats:acc-1").SetVal(1)

		cache.Set(ctx, "acc-1", 3, stats)
		cache.Invalidate(ctx, "acc-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis errors degrade to a miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewStatsCache(client, 30*time.Second)

		mock.ExpectGet("stats:acc-1").SetErr(errors.New("connection refused"))

		_, ok := cache.Get(ctx, "acc-1", 3)
		assert.False(t, ok)
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		cache := NewStatsCache(nil, time.Minute)

		_, ok := cache.Get(ctx, "acc-1", 0)
		assert.False(t, ok)
		cache.Set(ctx, "acc-1", 0, stats)
		cache.Invalidate(ctx, "acc-1")
	})
}

func TestWagerService_InvalidatesStatsCache(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := newSeededStore(t, "acc-1", "10")
	service := newTestWagerService(store, NewFixedSource(0.5))
	service.cache = NewStatsCache(client, time.Minute)

	mock.ExpectDel("stats:acc-1").SetVal(1)

	_, err := service.PlaceWager(ctx, "acc-1", models.WagerRequest{Game: models.GameDice, Bet: d("1"), Target: 50})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// interleavingStore places a wager after the stats read has taken its
// ledger snapshot but before the result reaches the cache.
type interleavingStore struct {
	repository.LedgerStore
	afterRead func()
}

func (s *interleavingStore) ListEntries(ctx context.Context, accountID string, kinds ...models.EntryKind) ([]*models.LedgerEntry, error) {
	entries, err := s.LedgerStore.ListEntries(ctx, accountID, kinds...)
	if s.afterRead != nil {
		hook := s.afterRead
		s.afterRead = nil
		hook()
	}
	return entries, err
}

func TestStatsService_WagerDuringComputeDoesNotPinStaleStats(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	seeded := newSeededStore(t, "acc-1", "10")
	store := &interleavingStore{LedgerStore: seeded}

	wagers := newTestWagerService(seeded, NewFixedSource(0.5))
	wagers.cache = cache

	now := time.Now().UTC().Add(time.Minute)
	service := NewStatsService(store, cache, nil)
	service.now = func() time.Time { return now }

	before, err := seeded.GetAccount(ctx, "acc-1")
	require.NoError(t, err)

	store.afterRead = func() {
		_, err := wagers.PlaceWager(ctx, "acc-1", models.WagerRequest{Game: models.GameDice, Bet: d("1"), Target: 50})
		require.NoError(t, err)
	}

	stale, err := json.Marshal(cachedStats{Version: before.Version, Stats: AggregateWagerStats(nil, now, service.windows)})
	require.NoError(t, err)

	mock.ExpectGet("stats:acc-1").RedisNil()
	mock.ExpectDel("stats:acc-1").SetVal(1)
	mock.ExpectSet("stats:acc-1", stale, time.Minute).SetVal("OK")

	first, err := service.ComputeStats(ctx, "acc-1")
	require.NoError(t, err)
	assertWindow(t, first, models.WindowLast24h, "0", "0")

	after, err := seeded.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.Greater(t, after.Version, before.Version)

	entries, err := seeded.ListEntries(ctx, "acc-1", models.KindWagerDebit, models.KindWagerCredit)
	require.NoError(t, err)
	fresh, err := json.Marshal(cachedStats{Version: after.Version, Stats: AggregateWagerStats(entries, now, service.windows)})
	require.NoError(t, err)

	// the stale value written above is still in redis and must be ignored
	mock.ExpectGet("stats:acc-1").SetVal(string(stale))
	mock.ExpectSet("stats:acc-1", fresh, time.Minute).SetVal("OK")

	second, err := service.ComputeStats(ctx, "acc-1")
	require.NoError(t, err)
	assertWindow(t, second, models.WindowLast24h, "1", "-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutQueue_Push(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &models.LedgerEntry{
		ID:        7,
		AccountID: "acc-1",
		Kind:      models.KindRedemption,
		Amount:    d("-5"),
		Metadata:  models.Metadata{"destination": testWallet, "reference": "ref-1"},
		Status:    models.StatusCompleted,
		CreatedAt: created,
	}

	payload, err := json.Marshal(PayoutJob{
		EntryID:     7,
		AccountID:   "acc-1",
		Amount:      d("5"),
		Destination: testWallet,
		Reference:   "ref-1",
		RequestedAt: created,
	})
	require.NoError(t, err)

	t.Run("pushes the job", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		queue := NewPayoutQueue(client, "redemption_queue")

		mock.ExpectRPush("redemption_queue", payload).SetVal(1)

		require.NoError(t, queue.Push(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completion enqueues the payout", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := newSeededStore(t, "acc-1", "20")
		service := newTestRedemptionService(store)
		service.queue = NewPayoutQueue(client, "redemption_queue")

		pending, err := service.RequestRedemption(ctx, "acc-1", d("5"), testWallet)
		require.NoError(t, err)

		job, err := json.Marshal(PayoutJob{
			EntryID:     pending.ID,
			AccountID:   "acc-1",
			Amount:      d("5"),
			Destination: testWallet,
			Reference:   pending.Metadata["reference"].(string),
			RequestedAt: pending.CreatedAt,
		})
		require.NoError(t, err)
		mock.ExpectRPush("redemption_queue", job).SetVal(1)

		_, err = service.CompleteRedemption(ctx, pending.ID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("disabled without redis", func(t *testing.T) {
		queue := NewPayoutQueue(nil, "redemption_queue")
		assert.False(t, queue.Enabled())
		assert.NoError(t, queue.Push(ctx, entry))
	})
}
