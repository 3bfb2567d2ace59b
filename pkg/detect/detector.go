// Package detect finds value bets by comparing target-book odds against
// fair probabilities devigged from a sharper reference consensus.
package detect

import (
	"math"
	"sort"

	"github.com/tmarchand/oddsedge/pkg/market"
	"github.com/tmarchand/oddsedge/pkg/match"
	"github.com/tmarchand/oddsedge/pkg/odds"
)

// maxPlausibleEV is the sanity ceiling: an apparent edge of 50% or more
// is a matching or data error, not a real mispricing. Not tunable.
const maxPlausibleEV = 50.0

// minOutcomeScore is the similarity floor for pairing a target outcome
// name with a reference outcome name on head-to-head markets.
const minOutcomeScore = 0.5

// Detector pairs events per market family and computes expected value.
type Detector struct {
	matcher *match.Matcher
	scorer  match.Scorer
}

// NewDetector creates a Detector. A nil scorer defaults to the LCS ratio.
func NewDetector(scorer match.Scorer) *Detector {
	if scorer == nil {
		scorer = match.LCSScorer{}
	}
	return &Detector{matcher: match.NewMatcher(scorer), scorer: scorer}
}

// EVPercent is the expected value of taking targetOdds at fairProb,
// as a percentage rounded to two decimals.
func EVPercent(targetOdds, fairProb float64) float64 {
	return round2((fairProb*targetOdds - 1) * 100)
}

// Find detects value bets across all market families present in the
// inputs. Candidates are kept when minEV < EV% < 50, merged across
// families, sorted by EV descending and deduplicated (first wins).
func (d *Detector) Find(targets []market.Event, refs []market.ReferenceEvent, minEV float64) []ValueBet {
	targetsByType := splitEvents(targets)
	refsByType := splitRefs(refs)

	var found []ValueBet

	// h2h_2way targets price the same fixtures as the three-way
	// reference consensus, so both feed the head-to-head pass.
	h2hTargets := append(append([]market.Event{}, targetsByType[market.TypeH2H]...),
		targetsByType[market.TypeH2H2Way]...)
	found = append(found, d.findH2H(h2hTargets, refsByType[market.TypeH2H], minEV)...)

	found = append(found, d.findSided(targetsByType[market.TypeOverUnder],
		refsByType[market.TypeOverUnder], minEV, market.OverUnderSide)...)
	found = append(found, d.findSided(targetsByType[market.TypeBTTS],
		refsByType[market.TypeBTTS], minEV, market.BTTSSide)...)

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].EVPercent > found[j].EVPercent
	})
	return Dedupe(found)
}

// Dedupe drops repeat candidates by (home, away, bet_on, market),
// keeping the first occurrence.
func Dedupe(bets []ValueBet) []ValueBet {
	seen := make(map[string]bool, len(bets))
	out := bets[:0:0]
	for _, vb := range bets {
		if seen[vb.Key()] {
			continue
		}
		seen[vb.Key()] = true
		out = append(out, vb)
	}
	return out
}

// findH2H pairs target outcomes to devigged reference outcomes by fuzzy
// name, with the draw-synonym class as a fallback when no direct name
// clears the similarity floor.
func (d *Detector) findH2H(targets []market.Event, refs []market.ReferenceEvent, minEV float64) []ValueBet {
	var found []ValueBet

	type refOutcome struct {
		name string
		prob float64
	}

	for _, pair := range d.matcher.Events(targets, refs) {
		ref := odds.Devig(pair.Reference.Outcomes)
		fairProbs := make([]refOutcome, 0, len(ref))
		for _, o := range ref {
			if o.FairProb > 0 {
				fairProbs = append(fairProbs, refOutcome{match.NormalizeName(o.Name), o.FairProb})
			}
		}

		for _, outcome := range pair.Target.Outcomes {
			name := match.NormalizeName(outcome.Name)

			fairProb, ok := 0.0, false
			bestSim := 0.0
			for _, r := range fairProbs {
				sim := d.scorer.Score(name, r.name)
				if sim > bestSim && sim > minOutcomeScore {
					bestSim = sim
					fairProb, ok = r.prob, true
				}
			}
			if !ok && market.DrawSynonyms[name] {
				for _, r := range fairProbs {
					if market.DrawSynonyms[r.name] {
						fairProb, ok = r.prob, true
						break
					}
				}
			}
			if !ok {
				continue // outcome has no plausible fair probability
			}

			if vb, keep := d.candidate(pair, outcome, fairProb, minEV); keep {
				found = append(found, vb)
			}
		}
	}
	return found
}

// findSided handles the two-sided families (over/under, BTTS) where the
// fair probability is read directly from the reference's matching side.
func (d *Detector) findSided(targets []market.Event, refs []market.ReferenceEvent, minEV float64, sideOf func(string) market.Side) []ValueBet {
	var found []ValueBet

	for _, pair := range d.matcher.Events(targets, refs) {
		ref := odds.Devig(pair.Reference.Outcomes)
		fairProbs := make(map[market.Side]float64, 2)
		for _, o := range ref {
			if side := sideOf(o.Name); side != market.SideNone && o.FairProb > 0 {
				fairProbs[side] = o.FairProb
			}
		}

		for _, outcome := range pair.Target.Outcomes {
			fairProb, ok := fairProbs[sideOf(outcome.Name)]
			if !ok {
				continue
			}
			if vb, keep := d.candidate(pair, outcome, fairProb, minEV); keep {
				found = append(found, vb)
			}
		}
	}
	return found
}

func (d *Detector) candidate(pair match.Pair, outcome market.Outcome, fairProb, minEV float64) (ValueBet, bool) {
	ev := EVPercent(outcome.Odds, fairProb)
	if ev <= minEV || ev >= maxPlausibleEV {
		return ValueBet{}, false
	}

	target, ref := pair.Target, pair.Reference
	sport := target.Sport
	if sport == "" {
		sport = ref.Sport
	}
	return ValueBet{
		Sport:          sport,
		Home:           target.Home,
		Away:           target.Away,
		Market:         target.Market,
		Type:           target.Type,
		Threshold:      target.Threshold,
		BetOn:          outcome.Name,
		TargetOdds:     outcome.Odds,
		FairProbPct:    round1(fairProb * 100),
		ImpliedProbPct: round1(odds.ImpliedProbability(outcome.Odds) * 100),
		EVPercent:      ev,
		MatchID:        target.MatchID,
		StartTime:      target.StartTime,
		NumBooks:       ref.NumBooks,
	}, true
}

func splitEvents(events []market.Event) map[market.Type][]market.Event {
	byType := make(map[market.Type][]market.Event)
	for _, e := range events {
		t := e.Type
		if t == "" {
			t = market.ParseType(e.Market)
		}
		byType[t] = append(byType[t], e)
	}
	return byType
}

func splitRefs(refs []market.ReferenceEvent) map[market.Type][]market.ReferenceEvent {
	byType := make(map[market.Type][]market.ReferenceEvent)
	for _, r := range refs {
		t := r.Type
		if t == "" {
			t = market.ParseType(r.Market)
		}
		byType[t] = append(byType[t], r)
	}
	return byType
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
