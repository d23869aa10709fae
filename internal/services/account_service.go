package services

import (
	"context"
	"fmt"
	"time"

	"github.com/betablockz/backend/internal/audit"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	store       repository.LedgerStore
	audit       *audit.AuditLogger
	recentLimit int
	now         func() time.Time
}

func NewAccountService(store repository.LedgerStore, auditLogger *audit.AuditLogger, recentLimit int) *AccountService {
	if recentLimit <= 0 {
		recentLimit = 30
	}
	return &AccountService{
		store:       store,
		audit:       auditLogger,
		recentLimit: recentLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// RecentEntries returns the newest ledger entries first.
func (s *AccountService) RecentEntries(ctx context.Context, accountID string) ([]*models.LedgerEntry, error) {
	return s.store.RecentEntries(ctx, accountID, s.recentLimit)
}

func (s *AccountService) TierProgress(ctx context.Context, accountID string) (models.TierProgress, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return models.TierProgress{}, err
	}
	return TierProgressFor(account.TotalWagered), nil
}

// Reconcile returns balance minus the ledger sum. Anything but zero is corruption.
func (s *AccountService) Reconcile(ctx context.Context, accountID string) (decimal.Decimal, error) {
	balance, sum, err := s.store.BalanceAndLedgerSum(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Sub(sum), nil
}

// AdjustAccount applies an administrative change. Subtractions clamp at zero
// and any balance movement is written to the ledger as an adjustment.
func (s *AccountService) AdjustAccount(ctx context.Context, accountID string, req models.AdjustRequest) (*models.Account, error) {
	if err := validateAdjustment(req); err != nil {
		return nil, err
	}

	var (
		updated *models.Account
		delta   decimal.Decimal
		fields  []string
	)
	err := s.store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		account := tx.Account()
		fields = fields[:0]

		before := account.Balance
		account.Balance = applyAdjustment(account.Balance, req.SetBalance, req.AddBalance, req.SubBalance)
		delta = account.Balance.Sub(before)
		if req.SetBalance != nil || req.AddBalance != nil || req.SubBalance != nil {
			fields = append(fields, "balance")
		}

		if req.SetWagered != nil || req.AddWagered != nil || req.SubWagered != nil {
			account.TotalWagered = applyAdjustment(account.TotalWagered, req.SetWagered, req.AddWagered, req.SubWagered)
			account.VIPTier = ClassifyTier(account.TotalWagered)
			fields = append(fields, "total_wagered")
		}
		if req.SetBonus != nil || req.AddBonus != nil || req.SubBonus != nil {
			account.BonusDue = applyAdjustment(account.BonusDue, req.SetBonus, req.AddBonus, req.SubBonus)
			fields = append(fields, "bonus_due")
		}

		if req.SetClaimCode != nil {
			if *req.SetClaimCode == "" {
				account.ClaimCodeHash = nil
			} else {
				hash, err := HashClaimCode(*req.SetClaimCode)
				if err != nil {
					return err
				}
				account.ClaimCodeHash = &hash
			}
			account.ClaimClaimedAt = nil
			fields = append(fields, "claim_code")
		}
		if req.SetClaimAmount != nil {
			account.ClaimAmount = *req.SetClaimAmount
			fields = append(fields, "claim_amount")
		}

		if !delta.IsZero() {
			if err := tx.AppendEntry(ctx, &models.LedgerEntry{
				AccountID: accountID,
				Kind:      models.KindAdjustment,
				Amount:    delta,
				Metadata:  models.Metadata{"note": "admin balance adjustment"},
				Status:    models.StatusCompleted,
				CreatedAt: s.now(),
			}); err != nil {
				return err
			}
		}

		if err := tx.SaveAccount(ctx); err != nil {
			return err
		}
		updated = account.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAdjustment(accountID, delta, fields)
	return updated, nil
}

func validateAdjustment(req models.AdjustRequest) error {
	for _, v := range []*decimal.Decimal{
		req.SetBalance, req.AddBalance, req.SubBalance,
		req.SetWagered, req.AddWagered, req.SubWagered,
		req.SetBonus, req.AddBonus, req.SubBonus,
		req.SetClaimAmount,
	} {
		if v == nil {
			continue
		}
		if v.IsNegative() {
			return fmt.Errorf("%w: adjustment values must not be negative", models.ErrInvalidParameter)
		}
		if !models.FitsAmountScale(*v) {
			return fmt.Errorf("%w: adjustment values allow at most %d decimal places", models.ErrInvalidParameter, models.AmountScale)
		}
	}
	return nil
}

// applyAdjustment applies set, then add, then sub, clamping the result at zero.
func applyAdjustment(cur decimal.Decimal, set, add, sub *decimal.Decimal) decimal.Decimal {
	if set != nil {
		cur = *set
	}
	if add != nil {
		cur = cur.Add(*add)
	}
	if sub != nil {
		cur = cur.Sub(*sub)
	}
	if cur.IsNegative() {
		return decimal.Zero
	}
	return cur
}
