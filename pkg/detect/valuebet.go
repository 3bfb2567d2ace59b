package detect

import (
	"time"

	"github.com/tmarchand/oddsedge/pkg/market"
)

// ValueBet is a detected mispricing: the target book pays TargetOdds on
// an outcome whose consensus fair probability implies positive expected
// value. Immutable once produced.
type ValueBet struct {
	Sport          string      `json:"sport"`
	Home           string      `json:"home"`
	Away           string      `json:"away"`
	Market         string      `json:"market"`
	Type           market.Type `json:"market_type"`
	Threshold      float64     `json:"market_threshold,omitempty"`
	BetOn          string      `json:"bet_on"`
	TargetOdds     float64     `json:"target_odds"`
	FairProbPct    float64     `json:"fair_prob"`
	ImpliedProbPct float64     `json:"implied_prob"`
	EVPercent      float64     `json:"ev_percent"`
	MatchID        string      `json:"match_id"`
	StartTime      time.Time   `json:"start_time"`
	NumBooks       int         `json:"num_books"`
}

// Key is the dedup identity of a candidate within one detection run.
func (v ValueBet) Key() string {
	return v.Home + "_" + v.Away + "_" + v.BetOn + "_" + v.Market
}
