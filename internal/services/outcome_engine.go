package services

import (
	"fmt"

	"github.com/betablockz/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	MinDiceTarget = 2
	MaxDiceTarget = 99
	MinMines      = 1
	MaxMines      = 24
	GridCells     = 25

	// multiplierPrecision applies to recorded metadata only.
	multiplierPrecision = 4
)

var (
	DefaultHouseEdge = decimal.RequireFromString("0.10")
	hundred          = decimal.NewFromInt(100)
	gridCells        = decimal.NewFromInt(GridCells)
)

// OutcomeEngine settles single bets. It holds no account state.
type OutcomeEngine struct {
	rng       RandomSource
	houseEdge decimal.Decimal
}

func NewOutcomeEngine(rng RandomSource, houseEdge decimal.Decimal) *OutcomeEngine {
	if rng == nil {
		rng = NewRandomSource()
	}
	return &OutcomeEngine{rng: rng, houseEdge: houseEdge}
}

func (e *OutcomeEngine) HouseEdge() decimal.Decimal {
	return e.houseEdge
}

// DiceMultiplier is (100 / target) * (1 - edge), computed without intermediate rounding.
func (e *OutcomeEngine) DiceMultiplier(target int) decimal.Decimal {
	return hundred.Mul(decimal.NewFromInt(1).Sub(e.houseEdge)).Div(decimal.NewFromInt(int64(target)))
}

// MinesMultiplier is (25 / (25 - mines)) * (1 - edge).
func (e *OutcomeEngine) MinesMultiplier(mines int) decimal.Decimal {
	return gridCells.Mul(decimal.NewFromInt(1).Sub(e.houseEdge)).Div(decimal.NewFromInt(int64(GridCells - mines)))
}

func (e *OutcomeEngine) Validate(req models.WagerRequest) error {
	if !req.Bet.IsPositive() {
		return fmt.Errorf("%w: bet must be greater than zero", models.ErrInvalidParameter)
	}
	if !models.FitsAmountScale(req.Bet) {
		return fmt.Errorf("%w: bet has more than %d decimal places", models.ErrInvalidParameter, models.AmountScale)
	}

	switch req.Game {
	case models.GameDice:
		if req.Target < MinDiceTarget || req.Target > MaxDiceTarget {
			return fmt.Errorf("%w: target must be between %d and %d", models.ErrInvalidParameter, MinDiceTarget, MaxDiceTarget)
		}
	case models.GameMines:
		if req.Mines < MinMines || req.Mines > MaxMines {
			return fmt.Errorf("%w: mines must be between %d and %d", models.ErrInvalidParameter, MinMines, MaxMines)
		}
	default:
		return fmt.Errorf("%w: unknown game %q", models.ErrInvalidParameter, req.Game)
	}
	return nil
}

// Play validates the request and settles it against one random draw.
func (e *OutcomeEngine) Play(req models.WagerRequest) (models.Outcome, error) {
	if err := e.Validate(req); err != nil {
		return models.Outcome{}, err
	}
	if req.Game == models.GameDice {
		return e.PlayDice(req.Bet, req.Target), nil
	}
	return e.PlayMines(req.Bet, req.Mines), nil
}

// PlayDice rolls an integer in [1,100]; the bet wins when the roll is under target.
func (e *OutcomeEngine) PlayDice(bet decimal.Decimal, target int) models.Outcome {
	draw := e.rng.Float64()
	roll := 1 + int(draw*100)
	if roll > 100 {
		roll = 100
	}
	if roll < 1 {
		roll = 1
	}

	multiplier := e.DiceMultiplier(target)
	out := models.Outcome{
		Game:       models.GameDice,
		Win:        roll < target,
		Result:     "lose",
		Roll:       roll,
		Draw:       draw,
		Multiplier: multiplier,
		Payout:     decimal.Zero,
	}
	if out.Win {
		out.Result = "win"
		out.Payout = settlePayout(bet, multiplier)
	}
	return out
}

// PlayMines reveals one cell on a 25-cell grid holding the given number of mines.
func (e *OutcomeEngine) PlayMines(bet decimal.Decimal, mines int) models.Outcome {
	draw := e.rng.Float64()
	pSafe := float64(GridCells-mines) / GridCells

	multiplier := e.MinesMultiplier(mines)
	out := models.Outcome{
		Game:       models.GameMines,
		Win:        draw < pSafe,
		Result:     "mine",
		Draw:       draw,
		Multiplier: multiplier,
		Payout:     decimal.Zero,
	}
	if out.Win {
		out.Result = "safe"
		out.Payout = settlePayout(bet, multiplier)
	}
	return out
}

// settlePayout truncates to the ledger scale so the house never pays a
// fraction the store cannot represent.
func settlePayout(bet, multiplier decimal.Decimal) decimal.Decimal {
	return bet.Mul(multiplier).Truncate(models.AmountScale)
}

// RecordedMultiplier is the display form written into ledger metadata.
func RecordedMultiplier(m decimal.Decimal) float64 {
	return m.Round(multiplierPrecision).InexactFloat64()
}
