package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PLPoint is one step of the cumulative profit curve, recorded at
// settlement time.
type PLPoint struct {
	SettledAt    time.Time       `json:"settled_at"`
	Match        string          `json:"match"`
	Profit       decimal.Decimal `json:"profit"`
	CumulativePL decimal.Decimal `json:"cumulative_pl"`
	Bankroll     decimal.Decimal `json:"bankroll"`
}

// Summary is the dashboard view of the ledger: bankroll figures,
// per-status counts, performance ratios and the recent history.
type Summary struct {
	InitialBankroll decimal.Decimal `json:"initial_bankroll"`
	CurrentBankroll decimal.Decimal `json:"current_bankroll"`
	TotalStaked     decimal.Decimal `json:"total_staked"`
	TotalReturned   decimal.Decimal `json:"total_returned"`
	TotalProfit     decimal.Decimal `json:"total_profit"`

	TotalBets   int `json:"total_bets"`
	PendingBets int `json:"pending_bets"`
	WonBets     int `json:"won_bets"`
	LostBets    int `json:"lost_bets"`
	VoidBets    int `json:"void_bets"`

	WinRatePct float64 `json:"win_rate_pct"`
	ROIPct     float64 `json:"roi_pct"`

	PLHistory  []PLPoint `json:"pl_history"`
	RecentBets []Bet     `json:"recent_bets"`
}

// Summary computes the current ledger summary.
func (b *Book) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summaryLocked()
}

// summaryLocked derives the summary from the visible record. Win rate
// counts only decided bets (voids excluded) and ROI divides realized
// profit by the stakes of settled bets, so open positions never skew
// either ratio.
func (b *Book) summaryLocked() Summary {
	rec := b.rec
	s := Summary{
		InitialBankroll: rec.InitialBankroll,
		CurrentBankroll: rec.CurrentBankroll,
		TotalStaked:     rec.TotalStaked,
		TotalReturned:   rec.TotalReturned,
		TotalBets:       len(rec.Bets),
		PLHistory:       []PLPoint{},
		RecentBets:      []Bet{},
	}

	totalProfit := decimal.Zero
	settledStakes := decimal.Zero
	settled := make([]Bet, 0, len(rec.Bets))
	for _, bet := range rec.Bets {
		switch bet.Status {
		case StatusPending:
			s.PendingBets++
			continue
		case StatusWon:
			s.WonBets++
		case StatusLost:
			s.LostBets++
		case StatusVoid:
			s.VoidBets++
		}
		if bet.Profit != nil {
			totalProfit = totalProfit.Add(*bet.Profit)
		}
		if bet.Status != StatusVoid {
			settledStakes = settledStakes.Add(bet.Stake)
		}
		settled = append(settled, bet)
	}
	s.TotalProfit = totalProfit

	if decided := s.WonBets + s.LostBets; decided > 0 {
		s.WinRatePct = round1(float64(s.WonBets) / float64(decided) * 100)
	}
	if settledStakes.IsPositive() {
		profit, _ := totalProfit.Float64()
		stakes, _ := settledStakes.Float64()
		s.ROIPct = round1(profit / stakes * 100)
	}

	sort.SliceStable(settled, func(i, j int) bool {
		ti, tj := settled[i].SettledAt, settled[j].SettledAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
	cumulative := decimal.Zero
	for _, bet := range settled {
		if bet.SettledAt == nil || bet.Profit == nil {
			continue
		}
		cumulative = cumulative.Add(*bet.Profit)
		s.PLHistory = append(s.PLHistory, PLPoint{
			SettledAt:    *bet.SettledAt,
			Match:        bet.MatchLabel(),
			Profit:       *bet.Profit,
			CumulativePL: cumulative,
			Bankroll:     rec.InitialBankroll.Add(cumulative),
		})
	}

	recent := make([]Bet, len(rec.Bets))
	copy(recent, rec.Bets)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].PlacedAt.After(recent[j].PlacedAt)
	})
	if limit := b.cfg.RecentBets; limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	s.RecentBets = recent

	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
