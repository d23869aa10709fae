package services

import (
	"github.com/betablockz/backend/internal/models"
	"github.com/shopspring/decimal"
)

const TierNone = "None"

// displayUnitsPerBase is the fixed base-to-display conversion factor.
var displayUnitsPerBase = decimal.NewFromInt(100)

type vipTier struct {
	threshold decimal.Decimal // display units
	name      string
}

// vipTiers is ordered from highest to lowest threshold.
var vipTiers = []vipTier{
	{decimal.NewFromInt(25000), "Diamond 3"},
	{decimal.NewFromInt(10000), "Diamond 2"},
	{decimal.NewFromInt(7500), "Diamond 1"},
	{decimal.NewFromInt(6250), "Platinum 3"},
	{decimal.NewFromInt(5000), "Platinum 2"},
	{decimal.NewFromInt(3750), "Platinum 1"},
	{decimal.NewFromInt(2500), "Gold"},
	{decimal.NewFromInt(1250), "Silver"},
	{decimal.NewFromInt(500), "Bronze"},
}

func ToDisplayUnits(x decimal.Decimal) decimal.Decimal {
	return x.Mul(displayUnitsPerBase)
}

// ClassifyTier maps cumulative wagered volume (base units) to a VIP tier name.
func ClassifyTier(wagered decimal.Decimal) string {
	display := ToDisplayUnits(wagered)
	for _, t := range vipTiers {
		if display.GreaterThanOrEqual(t.threshold) {
			return t.name
		}
	}
	return TierNone
}

// TierProgressFor reports how far wagered volume has moved from the current
// tier threshold toward the next one. Thresholds are in display units.
func TierProgressFor(wagered decimal.Decimal) models.TierProgress {
	display := ToDisplayUnits(wagered)

	top := vipTiers[0]
	if display.GreaterThanOrEqual(top.threshold) {
		return models.TierProgress{Tier: top.name, Percent: 100, Current: top.threshold, Next: top.threshold}
	}

	tier, current := TierNone, decimal.Zero
	next := top.threshold
	for i := len(vipTiers) - 1; i >= 0; i-- {
		t := vipTiers[i]
		if display.LessThan(t.threshold) {
			next = t.threshold
			break
		}
		tier, current = t.name, t.threshold
	}

	span := next.Sub(current)
	if span.LessThan(decimal.NewFromInt(1)) {
		span = decimal.NewFromInt(1)
	}
	ratio := display.Sub(current).Div(span)
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}

	return models.TierProgress{
		Tier:    tier,
		Percent: ratio.Mul(hundred).Round(2).InexactFloat64(),
		Current: current,
		Next:    next,
	}
}
