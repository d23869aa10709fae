package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/betablockz/backend/internal/audit"
	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type RedemptionService struct {
	store     repository.LedgerStore
	queue     *PayoutQueue
	metrics   *metrics.MetricsCollector
	audit     *audit.AuditLogger
	logger    zerolog.Logger
	minAmount decimal.Decimal
	now       func() time.Time
}

func NewRedemptionService(store repository.LedgerStore, queue *PayoutQueue, m *metrics.MetricsCollector,
	auditLogger *audit.AuditLogger, logger zerolog.Logger, minAmount decimal.Decimal) *RedemptionService {
	return &RedemptionService{
		store:     store,
		queue:     queue,
		metrics:   m,
		audit:     auditLogger,
		logger:    logger.With().Str("component", "redemption").Logger(),
		minAmount: minAmount,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestRedemption debits the amount right away and records a pending
// redemption entry for an administrator to complete or reject.
func (s *RedemptionService) RequestRedemption(ctx context.Context, accountID string, amount decimal.Decimal, destination string) (*models.LedgerEntry, error) {
	destination = strings.TrimSpace(destination)
	if !amount.IsPositive() || amount.LessThan(s.minAmount) {
		return nil, fmt.Errorf("%w: redemption amount must be at least %s", models.ErrInvalidParameter, s.minAmount)
	}
	if !models.FitsAmountScale(amount) {
		return nil, fmt.Errorf("%w: amount has more than %d decimal places", models.ErrInvalidParameter, models.AmountScale)
	}
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", models.ErrInvalidParameter)
	}

	var entry *models.LedgerEntry
	err := s.store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		account := tx.Account()
		if account.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", models.ErrInsufficientFunds, account.Balance, amount)
		}

		account.Balance = account.Balance.Sub(amount)
		entry = &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindRedemption,
			Amount:    amount.Neg(),
			Metadata: models.Metadata{
				"destination": destination,
				"reference":   uuid.NewString(),
			},
			Status:    models.StatusPending,
			CreatedAt: s.now(),
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}
		return tx.SaveAccount(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRedemption(string(models.StatusPending))
	s.audit.LogRedemption(entry.ID, accountID, amount, string(models.StatusPending))
	return entry, nil
}

// CompleteRedemption marks a pending redemption as paid and hands it to the payout queue.
func (s *RedemptionService) CompleteRedemption(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	entry, err := s.transition(ctx, entryID, models.StatusCompleted, nil)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Push(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("entry_id", entryID).Msg("[REDEMPTION] failed to enqueue payout")
	}
	return entry, nil
}

// RejectRedemption refunds a pending redemption. The refund is its own
// ledger entry so the balance still equals the sum of entries.
func (s *RedemptionService) RejectRedemption(ctx context.Context, entryID int64) (*models.LedgerEntry, error) {
	return s.transition(ctx, entryID, models.StatusRejected, func(ctx context.Context, tx repository.AccountTx, entry *models.LedgerEntry) error {
		refund := entry.Amount.Neg()
		account := tx.Account()
		account.Balance = account.Balance.Add(refund)

		if err := tx.AppendEntry(ctx, &models.LedgerEntry{
			AccountID: entry.AccountID,
			Kind:      models.KindRedemption,
			Amount:    refund,
			Metadata: models.Metadata{
				"refund_of": entry.ID,
				"note":      "redemption rejected",
			},
			Status:    models.StatusCompleted,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		return tx.SaveAccount(ctx)
	})
}

func (s *RedemptionService) transition(ctx context.Context, entryID int64, to models.EntryStatus,
	apply func(ctx context.Context, tx repository.AccountTx, entry *models.LedgerEntry) error) (*models.LedgerEntry, error) {
	found, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err = s.store.InAccountTx(ctx, found.AccountID, func(ctx context.Context, tx repository.AccountTx) error {
		locked, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if locked.Kind != models.KindRedemption || locked.Status != models.StatusPending {
			return fmt.Errorf("%w: entry %d is %s %s", models.ErrInvalidTransition, entryID, locked.Kind, locked.Status)
		}

		if err := tx.SetEntryStatus(ctx, entryID, to); err != nil {
			return err
		}
		if apply != nil {
			if err := apply(ctx, tx, locked); err != nil {
				return err
			}
		}
		locked.Status = to
		entry = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRedemption(string(to))
	s.audit.LogRedemption(entry.ID, entry.AccountID, entry.Amount.Neg(), string(to))
	s.logger.Info().Int64("entry_id", entryID).Str("status", string(to)).Msg("[REDEMPTION] status changed")
	return entry, nil
}

func (s *RedemptionService) ListPendingRedemptions(ctx context.Context) ([]*models.LedgerEntry, error) {
	return s.store.PendingRedemptions(ctx)
}
