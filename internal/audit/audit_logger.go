package audit

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EventWager      = "WAGER"
	EventRedemption = "REDEMPTION"
	EventCredit     = "CREDIT"
	EventAdjustment = "ADJUSTMENT"
	EventError      = "ERROR"
)

type AuditEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	Reference string          `json:"reference"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Details   map[string]any  `json:"details,omitempty"`
}

// AuditLogger writes money-moving events to a dedicated zerolog stream.
type AuditLogger struct {
	logger zerolog.Logger
}

func NewAuditLogger(logger zerolog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.With().Str("component", "audit").Logger()}
}

func (a *AuditLogger) LogWager(wagerID, accountID, game string, bet, payout decimal.Decimal, result string) {
	a.log(AuditEvent{
		EventType: EventWager,
		Reference: wagerID,
		AccountID: accountID,
		Amount:    bet,
		Status:    "SUCCESS",
		Details: map[string]any{
			"game":   game,
			"payout": payout.String(),
			"result": result,
		},
	})
}

func (a *AuditLogger) LogRedemption(entryID int64, accountID string, amount decimal.Decimal, status string) {
	a.log(AuditEvent{
		EventType: EventRedemption,
		Reference: decimal.NewFromInt(entryID).String(),
		AccountID: accountID,
		Amount:    amount,
		Status:    status,
	})
}

func (a *AuditLogger) LogCredit(accountID string, amount decimal.Decimal, note string) {
	a.log(AuditEvent{
		EventType: EventCredit,
		AccountID: accountID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]any{"note": note},
	})
}

func (a *AuditLogger) LogAdjustment(accountID string, balanceDelta decimal.Decimal, fields []string) {
	a.log(AuditEvent{
		EventType: EventAdjustment,
		AccountID: accountID,
		Amount:    balanceDelta,
		Status:    "SUCCESS",
		Details:   map[string]any{"fields": fields},
	})
}

func (a *AuditLogger) LogError(operation, accountID string, err error) {
	a.log(AuditEvent{
		EventType: EventError,
		Reference: operation,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]any{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	if a == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	a.logger.Info().
		Str("event_type", event.EventType).
		Interface("audit", event).
		Msg("AUDIT")
}
