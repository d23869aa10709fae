package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits the amount columns keep
// (NUMERIC(30,10)). Anything finer would be rounded by the database
// independently for the balance and for each entry.
const AmountScale = 10

// FitsAmountScale reports whether d is stored without rounding.
func FitsAmountScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

type EntryKind string

const (
	KindWagerDebit  EntryKind = "wager_debit"
	KindWagerCredit EntryKind = "wager_credit"
	KindRedemption  EntryKind = "redemption"
	KindBonusCredit EntryKind = "bonus_credit"
	KindAdjustment  EntryKind = "adjustment"
)

type EntryStatus string

const (
	StatusCompleted EntryStatus = "completed"
	StatusPending   EntryStatus = "pending"
	StatusRejected  EntryStatus = "rejected"
)

// Metadata is the free-form JSON payload attached to a ledger entry.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported metadata type")
	}
	return json.Unmarshal(data, m)
}

// LedgerEntry is one immutable monetary event. Debits carry a negative amount.
type LedgerEntry struct {
	ID        int64           `json:"id" db:"id"`
	AccountID string          `json:"account_id" db:"account_id"`
	Kind      EntryKind       `json:"kind" db:"kind"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Metadata  Metadata        `json:"metadata" db:"metadata"`
	Status    EntryStatus     `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

func (e *LedgerEntry) IsWager() bool {
	return e.Kind == KindWagerDebit || e.Kind == KindWagerCredit
}

type Account struct {
	ID             string          `json:"id" db:"id"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	TotalWagered   decimal.Decimal `json:"total_wagered" db:"total_wagered"`
	VIPTier        string          `json:"vip_tier" db:"vip_tier"`
	BonusDue       decimal.Decimal `json:"bonus_due" db:"bonus_due"`
	ClaimCodeHash  *string         `json:"-" db:"claim_code_hash"`
	ClaimAmount    decimal.Decimal `json:"claim_amount" db:"claim_amount"`
	ClaimClaimedAt *time.Time      `json:"claim_claimed_at" db:"claim_claimed_at"`
	Version        int             `json:"version" db:"version"` // for optimistic locking
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so staged mutations never leak into shared state.
func (a *Account) Clone() *Account {
	c := *a
	if a.ClaimCodeHash != nil {
		h := *a.ClaimCodeHash
		c.ClaimCodeHash = &h
	}
	if a.ClaimClaimedAt != nil {
		t := *a.ClaimClaimedAt
		c.ClaimClaimedAt = &t
	}
	return &c
}
