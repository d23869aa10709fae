package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WindowLast24h = "last_24h"
	WindowLast7d  = "last_7d"
	WindowLast30d = "last_30d"
)

// StatsWindow is a rolling window anchored at "now".
type StatsWindow struct {
	Name     string
	Duration time.Duration
}

var DefaultStatsWindows = []StatsWindow{
	{Name: WindowLast24h, Duration: 24 * time.Hour},
	{Name: WindowLast7d, Duration: 7 * 24 * time.Hour},
	{Name: WindowLast30d, Duration: 30 * 24 * time.Hour},
}

type WindowStats struct {
	Wagered decimal.Decimal `json:"wagered"`
	PnL     decimal.Decimal `json:"pnl"`
}

type AccountStats map[string]WindowStats

type TierProgress struct {
	Tier    string          `json:"tier"`
	Percent float64         `json:"percent"`
	Current decimal.Decimal `json:"current_threshold"`
	Next    decimal.Decimal `json:"next_threshold"`
}

// AdjustRequest is an administrative change to an account. Nil fields are left alone.
type AdjustRequest struct {
	SetBalance     *decimal.Decimal `json:"set_amount,omitempty"`
	AddBalance     *decimal.Decimal `json:"add_amount,omitempty"`
	SubBalance     *decimal.Decimal `json:"sub_amount,omitempty"`
	SetWagered     *decimal.Decimal `json:"set_wager,omitempty"`
	AddWagered     *decimal.Decimal `json:"add_wager,omitempty"`
	SubWagered     *decimal.Decimal `json:"sub_wager,omitempty"`
	SetBonus       *decimal.Decimal `json:"set_bonus,omitempty"`
	AddBonus       *decimal.Decimal `json:"add_bonus,omitempty"`
	SubBonus       *decimal.Decimal `json:"sub_bonus,omitempty"`
	SetClaimCode   *string          `json:"set_claim_code,omitempty"`
	SetClaimAmount *decimal.Decimal `json:"set_claim_amount,omitempty"`
}
