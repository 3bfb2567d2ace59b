package odds

import (
	"math"
	"testing"

	"github.com/tmarchand/oddsedge/pkg/market"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		odds float64
		want float64
	}{
		{2.00, 0.5},
		{4.00, 0.25},
		{1.25, 0.8},
		{0, 0},
		{-1.5, 0},
	}
	for _, tt := range tests {
		if got := ImpliedProbability(tt.odds); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ImpliedProbability(%v) = %v, want %v", tt.odds, got, tt.want)
		}
	}
}

func TestDevig(t *testing.T) {
	// typical 1X2 line with ~5% overround
	outcomes := Devig([]market.Outcome{
		{Name: "Home", Odds: 2.00},
		{Name: "Draw", Odds: 3.50},
		{Name: "Away", Odds: 4.00},
	})

	sum := 0.0
	for _, o := range outcomes {
		if o.FairProb <= 0 || o.FairProb >= 1 {
			t.Errorf("%s fair prob out of range: %v", o.Name, o.FairProb)
		}
		if o.FairProb >= o.ImpliedProb {
			t.Errorf("%s fair prob %v should be below implied %v", o.Name, o.FairProb, o.ImpliedProb)
		}
		sum += o.FairProb
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("fair probs sum to %v, want 1.0", sum)
	}

	// ordering is preserved
	if outcomes[0].Name != "Home" || outcomes[2].Name != "Away" {
		t.Error("devig must not reorder outcomes")
	}
	// higher implied stays higher after devigging
	if outcomes[0].FairProb <= outcomes[1].FairProb {
		t.Error("devig must preserve probability ordering")
	}
}

func TestDevigMarginFree(t *testing.T) {
	// a market already at exactly 100% passes through with equal probs
	outcomes := Devig([]market.Outcome{
		{Name: "A", Odds: 2.00},
		{Name: "B", Odds: 2.00},
	})
	for _, o := range outcomes {
		if math.Abs(o.FairProb-0.5) > 1e-9 {
			t.Errorf("%s fair prob = %v, want 0.5", o.Name, o.FairProb)
		}
	}
}

func TestDevigDegenerate(t *testing.T) {
	// all-zero odds: returned unchanged, no NaN
	in := []market.Outcome{{Name: "A", Odds: 0}, {Name: "B", Odds: 0}}
	out := Devig(in)
	for _, o := range out {
		if o.FairProb != 0 {
			t.Errorf("degenerate set produced fair prob %v", o.FairProb)
		}
	}

	if got := Devig(nil); len(got) != 0 {
		t.Errorf("Devig(nil) = %v", got)
	}
}
