// Package odds converts decimal odds to probabilities and removes the
// bookmaker margin so an outcome set sums to a fair 100%.
package odds

import (
	"github.com/tmarchand/oddsedge/pkg/market"
)

// ImpliedProbability converts decimal odds to the implied probability,
// 0 for non-positive odds.
func ImpliedProbability(decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	return 1.0 / decimalOdds
}

// Devig removes the bookmaker margin by additive normalization: each
// implied probability is divided by the implied sum so the fair
// probabilities sum to 1. When the implied sum is zero the input is
// returned unchanged; callers must treat such a set as unusable.
func Devig(outcomes []market.Outcome) []market.Outcome {
	total := 0.0
	for _, o := range outcomes {
		total += ImpliedProbability(o.Odds)
	}
	if total == 0 {
		return outcomes
	}

	result := make([]market.Outcome, len(outcomes))
	for i, o := range outcomes {
		ip := ImpliedProbability(o.Odds)
		o.ImpliedProb = ip
		o.FairProb = ip / total
		result[i] = o
	}
	return result
}
