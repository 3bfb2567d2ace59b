package ledger

import (
	"github.com/shopspring/decimal"
)

// Sizing is the result of a Kelly stake computation.
type Sizing struct {
	KellyFull     float64         `json:"kelly_full"`
	KellyFraction float64         `json:"kelly_fraction"`
	Stake         decimal.Decimal `json:"stake"`
	KellyUsed     float64         `json:"kelly_used"`
}

// KellyStake sizes a bet with the fractional Kelly criterion.
//
// With p the fair win probability, q = 1-p and b = odds-1, the full
// Kelly fraction is f = (b*p - q) / b. The staked fraction is
// f * multiplier, capped at maxStakePct of the bankroll; stakes below
// the minimum stake collapse to zero rather than placing dust bets.
func KellyStake(odds, fairProbPct float64, bankroll decimal.Decimal, multiplier, maxStakePct float64, minStake decimal.Decimal) Sizing {
	sizing := Sizing{Stake: decimal.Zero, KellyUsed: multiplier}

	p := fairProbPct / 100
	q := 1 - p
	b := odds - 1
	if b <= 0 || p <= 0 {
		return sizing
	}

	kellyFull := (b*p - q) / b
	if kellyFull <= 0 {
		return sizing
	}

	fraction := kellyFull * multiplier
	if fraction > maxStakePct {
		fraction = maxStakePct
	}

	stake := bankroll.Mul(decimal.NewFromFloat(fraction)).Round(2)
	if stake.LessThan(minStake) {
		stake = decimal.Zero
	}

	sizing.KellyFull = kellyFull
	sizing.KellyFraction = fraction
	sizing.Stake = stake
	return sizing
}
