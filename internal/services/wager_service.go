package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/betablockz/backend/internal/audit"
	"github.com/betablockz/backend/internal/metrics"
	"github.com/betablockz/backend/internal/models"
	"github.com/betablockz/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type WagerService struct {
	store   repository.LedgerStore
	engine  *OutcomeEngine
	cache   *StatsCache
	metrics *metrics.MetricsCollector
	audit   *audit.AuditLogger
	logger  zerolog.Logger
	maxBet  decimal.Decimal
	now     func() time.Time
}

func NewWagerService(store repository.LedgerStore, engine *OutcomeEngine, cache *StatsCache,
	m *metrics.MetricsCollector, auditLogger *audit.AuditLogger, logger zerolog.Logger, maxBet decimal.Decimal) *WagerService {
	return &WagerService{
		store:   store,
		engine:  engine,
		cache:   cache,
		metrics: m,
		audit:   auditLogger,
		logger:  logger.With().Str("component", "wager").Logger(),
		maxBet:  maxBet,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceWager debits the bet, settles it and credits the payout as one unit
// of work on the account. A losing wager still writes a zero credit so the
// debit always has a terminator in the ledger.
func (s *WagerService) PlaceWager(ctx context.Context, accountID string, req models.WagerRequest) (*models.WagerResult, error) {
	if err := s.engine.Validate(req); err != nil {
		s.metrics.RecordWagerFailure("invalid_parameter")
		return nil, err
	}
	if s.maxBet.IsPositive() && req.Bet.GreaterThan(s.maxBet) {
		s.metrics.RecordWagerFailure("invalid_parameter")
		return nil, fmt.Errorf("%w: bet exceeds maximum of %s", models.ErrInvalidParameter, s.maxBet)
	}

	start := time.Now()
	wagerID := uuid.NewString()
	var result models.WagerResult

	err := s.store.InAccountTx(ctx, accountID, func(ctx context.Context, tx repository.AccountTx) error {
		account := tx.Account()
		if account.Balance.LessThan(req.Bet) {
			return fmt.Errorf("%w: balance %s, bet %s", models.ErrInsufficientFunds, account.Balance, req.Bet)
		}

		account.Balance = account.Balance.Sub(req.Bet)
		account.TotalWagered = account.TotalWagered.Add(req.Bet)
		account.VIPTier = ClassifyTier(account.TotalWagered)

		debit := &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindWagerDebit,
			Amount:    req.Bet.Neg(),
			Metadata:  wagerParams(wagerID, req),
			Status:    models.StatusCompleted,
			CreatedAt: s.now(),
		}
		if err := tx.AppendEntry(ctx, debit); err != nil {
			return err
		}

		outcome, err := s.engine.Play(req)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Add(outcome.Payout)
		credit := &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindWagerCredit,
			Amount:    outcome.Payout,
			Metadata:  wagerResult(wagerID, req, outcome),
			Status:    models.StatusCompleted,
			CreatedAt: s.now(),
		}
		if credit.CreatedAt.Before(debit.CreatedAt) {
			credit.CreatedAt = debit.CreatedAt
		}
		if err := tx.AppendEntry(ctx, credit); err != nil {
			return err
		}

		if err := tx.SaveAccount(ctx); err != nil {
			return err
		}

		result = models.WagerResult{
			WagerID: wagerID,
			Outcome: outcome,
			Balance: account.Balance,
			VIPTier: account.VIPTier,
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordWagerFailure(failureReason(err))
		if errors.Is(err, models.ErrLedgerWriteFailure) {
			s.audit.LogError("place_wager", accountID, err)
			s.logger.Error().Err(err).Str("account_id", accountID).Msg("[WAGER] ledger commit failed")
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, accountID)
	s.metrics.RecordWager(string(req.Game), result.Outcome.Result,
		req.Bet.InexactFloat64(), result.Outcome.Payout.InexactFloat64(), time.Since(start))
	s.audit.LogWager(wagerID, accountID, string(req.Game), req.Bet, result.Outcome.Payout, result.Outcome.Result)
	s.logger.Debug().
		Str("account_id", accountID).
		Str("wager_id", wagerID).
		Str("game", string(req.Game)).
		Str("result", result.Outcome.Result).
		Msg("[WAGER] settled")

	return &result, nil
}

func wagerParams(wagerID string, req models.WagerRequest) models.Metadata {
	meta := models.Metadata{
		"wager_id": wagerID,
		"game":     string(req.Game),
		"bet":      req.Bet.String(),
	}
	switch req.Game {
	case models.GameDice:
		meta["target"] = req.Target
	case models.GameMines:
		meta["mines"] = req.Mines
	}
	return meta
}

func wagerResult(wagerID string, req models.WagerRequest, out models.Outcome) models.Metadata {
	meta := wagerParams(wagerID, req)
	meta["result"] = out.Result
	meta["draw"] = out.Draw
	meta["multiplier"] = RecordedMultiplier(out.Multiplier)
	if out.Game == models.GameDice {
		meta["roll"] = out.Roll
	}
	return meta
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, models.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, models.ErrLedgerWriteFailure):
		return "ledger_write_failure"
	default:
		return "other"
	}
}
