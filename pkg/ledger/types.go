// Package ledger owns the virtual bankroll: fractional-Kelly stake
// sizing, bet placement with deduplication, the settlement state
// machine, and atomic persistence of the whole record. All mutations of
// a Book run under a single mutex and become durable before they become
// visible.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmarchand/oddsedge/pkg/detect"
)

// BetStatus is the lifecycle state of a bet. pending is the only
// non-terminal state; won, lost and void are immutable once reached.
type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
	StatusVoid    BetStatus = "void"
)

// Terminal reports whether the status permits no further transitions.
func (s BetStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid
}

// Bet is a staked value-bet candidate tracked through settlement.
type Bet struct {
	detect.ValueBet

	BetID           string          `json:"bet_id"`
	PlacedAt        time.Time       `json:"placed_at"`
	Stake           decimal.Decimal `json:"stake"`
	KellyFraction   float64         `json:"kelly_fraction"`
	KellyUsed       float64         `json:"kelly_used"`
	PotentialReturn decimal.Decimal `json:"potential_return"`
	Status          BetStatus       `json:"status"`
	SettledAt       *time.Time      `json:"settled_at"`
	Profit          *decimal.Decimal `json:"profit"`
	ResultInfo      string          `json:"result_info,omitempty"`
}

// DedupKey identifies a bet for placement deduplication.
func (b *Bet) DedupKey() string {
	return b.MatchID + "_" + b.BetOn + "_" + b.Market
}

// MatchLabel is the human-readable fixture name used in diagnostics.
func (b *Bet) MatchLabel() string {
	return b.Home + " vs " + b.Away
}

// Record is the durable ledger state: bankroll accounting plus every
// bet ever placed, in placement order.
type Record struct {
	InitialBankroll decimal.Decimal `json:"initial_bankroll"`
	CurrentBankroll decimal.Decimal `json:"current_bankroll"`
	TotalStaked     decimal.Decimal `json:"total_staked"`
	TotalReturned   decimal.Decimal `json:"total_returned"`
	CreatedAt       time.Time       `json:"created_at"`
	LastUpdated     time.Time       `json:"last_updated"`
	Bets            []Bet           `json:"bets"`
}

// NewRecord creates a fresh ledger at the given bankroll.
func NewRecord(initial decimal.Decimal) *Record {
	now := time.Now()
	return &Record{
		InitialBankroll: initial,
		CurrentBankroll: initial,
		TotalStaked:     decimal.Zero,
		TotalReturned:   decimal.Zero,
		CreatedAt:       now,
		LastUpdated:     now,
		Bets:            []Bet{},
	}
}

// Clone deep-copies the record so a mutation batch can be prepared and
// persisted before it replaces the visible state.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Bets = make([]Bet, len(r.Bets))
	for i := range r.Bets {
		b := r.Bets[i]
		if b.SettledAt != nil {
			t := *b.SettledAt
			b.SettledAt = &t
		}
		if b.Profit != nil {
			p := *b.Profit
			b.Profit = &p
		}
		cp.Bets[i] = b
	}
	return &cp
}

// PlaceReport summarizes one placement batch.
type PlaceReport struct {
	Placed  int   `json:"placed"`
	Skipped int   `json:"skipped"`
	Details []Bet `json:"details"`
}

// BetReport is a per-bet diagnostic emitted by a force settlement sweep.
type BetReport struct {
	BetID   string `json:"bet_id"`
	Match   string `json:"match"`
	BetOn   string `json:"bet_on"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// SettleReport summarizes one settlement sweep.
type SettleReport struct {
	Settled      int         `json:"settled"`
	StillPending int         `json:"still_pending"`
	Details      []Bet       `json:"details"`
	BetReports   []BetReport `json:"bet_reports,omitempty"`
}

// ManualResult is the structured outcome of a manual settlement request.
type ManualResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Summary *Summary `json:"summary,omitempty"`
}
