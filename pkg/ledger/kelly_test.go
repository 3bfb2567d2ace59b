package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKellyStake(t *testing.T) {
	bankroll := decimal.NewFromInt(100)
	minStake := decimal.NewFromFloat(0.10)

	tests := []struct {
		name        string
		odds        float64
		fairProbPct float64
		wantFull    float64
		wantFrac    float64
		wantStake   string
	}{
		{
			// full Kelly 0.20 capped by the 5% bankroll ceiling
			name:        "quarter kelly hits cap",
			odds:        2.00,
			fairProbPct: 60,
			wantFull:    0.20,
			wantFrac:    0.05,
			wantStake:   "5",
		},
		{
			name:        "small edge below cap",
			odds:        2.00,
			fairProbPct: 52,
			wantFull:    0.04,
			wantFrac:    0.01,
			wantStake:   "1",
		},
		{
			name:        "no edge",
			odds:        2.00,
			fairProbPct: 50,
			wantFull:    0,
			wantFrac:    0,
			wantStake:   "0",
		},
		{
			name:        "negative edge",
			odds:        1.50,
			fairProbPct: 40,
			wantFull:    0,
			wantFrac:    0,
			wantStake:   "0",
		},
		{
			name:        "odds at one",
			odds:        1.00,
			fairProbPct: 90,
			wantFull:    0,
			wantFrac:    0,
			wantStake:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := KellyStake(tt.odds, tt.fairProbPct, bankroll, 0.25, 0.05, minStake)
			if math.Abs(s.KellyFull-tt.wantFull) > 1e-9 {
				t.Errorf("KellyFull = %v, want %v", s.KellyFull, tt.wantFull)
			}
			if math.Abs(s.KellyFraction-tt.wantFrac) > 1e-9 {
				t.Errorf("KellyFraction = %v, want %v", s.KellyFraction, tt.wantFrac)
			}
			if s.Stake.String() != tt.wantStake {
				t.Errorf("Stake = %s, want %s", s.Stake, tt.wantStake)
			}
		})
	}
}

func TestKellyStakeMinStakeFloor(t *testing.T) {
	// tiny bankroll: the sized stake would be 0.05, below the floor
	s := KellyStake(2.00, 60, decimal.NewFromInt(1), 0.25, 0.05, decimal.NewFromFloat(0.10))
	if !s.Stake.IsZero() {
		t.Errorf("stake below floor should drop to zero, got %s", s.Stake)
	}
}
