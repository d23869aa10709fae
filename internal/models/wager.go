package models

import "github.com/shopspring/decimal"

type GameKind string

const (
	GameDice  GameKind = "dice"
	GameMines GameKind = "mines"
)

// WagerRequest carries the bet and the parameters of the selected game.
// Target is read for dice, Mines for mines.
type WagerRequest struct {
	Game   GameKind
	Bet    decimal.Decimal
	Target int
	Mines  int
}

// Outcome is what the outcome engine decided for a single bet.
type Outcome struct {
	Game       GameKind        `json:"game"`
	Win        bool            `json:"win"`
	Result     string          `json:"result"` // win/lose or safe/mine
	Roll       int             `json:"roll,omitempty"`
	Draw       float64         `json:"draw"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

type WagerResult struct {
	WagerID string          `json:"wager_id"`
	Outcome Outcome         `json:"outcome"`
	Balance decimal.Decimal `json:"balance"`
	VIPTier string          `json:"vip_tier"`
}
