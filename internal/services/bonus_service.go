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
	"github.com/shopspring/decimal"
)

type BonusService struct {
	store   repository.LedgerStore
	metrics *metrics.MetricsCollector
	audit   *audit.AuditLogger
	now     func() time.Time
}

func NewBonusService(store repository.LedgerStore, m *metrics.MetricsCollector, auditLogger *audit.AuditLogger) *BonusService {
	return &BonusService{
		store:   store,
		metrics: m,
		audit:   auditLogger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ClaimCode credits the account's claim amount once, if the code matches.
func (s *BonusService) ClaimCode(ctx context.Context, accountID, code string) (decimal.Decimal, error) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, models.ErrInvalidCode
	}

	var credited decimal.Decimal
	err := s.store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		account := tx.Account()
		if account.ClaimCodeHash == nil || !VerifyClaimCode(code, *account.ClaimCodeHash) {
			return models.ErrInvalidCode
		}
		if account.ClaimClaimedAt != nil {
			return models.ErrAlreadyClaimed
		}
		if !account.ClaimAmount.IsPositive() {
			return models.ErrNoClaimAmount
		}

		now := s.now()
		credited = account.ClaimAmount
		account.Balance = account.Balance.Add(credited)
		account.ClaimClaimedAt = &now

		if err := tx.AppendEntry(ctx, &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindBonusCredit,
			Amount:    credited,
			Metadata:  models.Metadata{"note": "claimed with code"},
			Status:    models.StatusCompleted,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.SaveAccount(ctx)
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.metrics.RecordBonusCredit()
	s.audit.LogCredit(accountID, credited, "claimed with code")
	return credited, nil
}

// CreditBonusDue moves the accumulated bonus-due balance into the spendable balance.
func (s *BonusService) CreditBonusDue(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var credited decimal.Decimal
	err := s.store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		account := tx.Account()
		if !account.BonusDue.IsPositive() {
			return fmt.Errorf("%w: account %s", models.ErrNoBonusDue, accountID)
		}

		credited = account.BonusDue
		account.Balance = account.Balance.Add(credited)
		account.BonusDue = decimal.Zero

		if err := tx.AppendEntry(ctx, &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindBonusCredit,
			Amount:    credited,
			Metadata:  models.Metadata{"note": "admin credited bonus"},
			Status:    models.StatusCompleted,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		return tx.SaveAccount(ctx)
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.metrics.RecordBonusCredit()
	s.audit.LogCredit(accountID, credited, "admin credited bonus")
	return credited, nil
}
