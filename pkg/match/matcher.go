package match

import (
	"github.com/tmarchand/oddsedge/pkg/market"
)

// MinScore is the similarity floor below which two events are never
// considered the same fixture.
const MinScore = 0.55

// Pair is a matched (target, reference) event couple.
type Pair struct {
	Target    market.Event
	Reference market.ReferenceEvent
}

// Matcher greedily assigns each target event its best-scoring unused
// reference event. Greedy first-match is deliberate: it mirrors feed
// ordering and keeps results stable run to run.
type Matcher struct {
	scorer Scorer
}

// NewMatcher creates a Matcher. A nil scorer defaults to LCSScorer.
func NewMatcher(scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = LCSScorer{}
	}
	return &Matcher{scorer: scorer}
}

// Events matches target events against reference events of the same
// market family. Each reference is used at most once; targets without a
// plausible reference are dropped. Both home/away orientations are
// scored to tolerate books that disagree on which side is "home".
// For thresholded families both lists are partitioned by threshold first,
// so an over/under 1.5 never pairs with a 2.5.
func (m *Matcher) Events(targets []market.Event, refs []market.ReferenceEvent) []Pair {
	if len(targets) == 0 || len(refs) == 0 {
		return nil
	}
	if targets[0].Type.Thresholded() {
		return m.matchByThreshold(targets, refs)
	}
	return m.matchGreedy(targets, refs)
}

func (m *Matcher) matchByThreshold(targets []market.Event, refs []market.ReferenceEvent) []Pair {
	targetGroups := make(map[float64][]market.Event)
	var order []float64
	for _, t := range targets {
		if _, seen := targetGroups[t.Threshold]; !seen {
			order = append(order, t.Threshold)
		}
		targetGroups[t.Threshold] = append(targetGroups[t.Threshold], t)
	}
	refGroups := make(map[float64][]market.ReferenceEvent)
	for _, r := range refs {
		refGroups[r.Threshold] = append(refGroups[r.Threshold], r)
	}

	var pairs []Pair
	for _, threshold := range order {
		group := refGroups[threshold]
		if len(group) == 0 {
			continue
		}
		pairs = append(pairs, m.matchGreedy(targetGroups[threshold], group)...)
	}
	return pairs
}

func (m *Matcher) matchGreedy(targets []market.Event, refs []market.ReferenceEvent) []Pair {
	used := make([]bool, len(refs))
	var pairs []Pair

	for _, target := range targets {
		bestIdx := -1
		bestScore := 0.0

		for i, ref := range refs {
			if used[i] {
				continue
			}
			score := m.pairScore(target, ref.Event)
			// Strict > keeps the first-scanned reference on ties.
			if score > bestScore && score >= MinScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			used[bestIdx] = true
			pairs = append(pairs, Pair{Target: target, Reference: refs[bestIdx]})
		}
	}
	return pairs
}

// pairScore is the mean team-name similarity over the better of the two
// home/away orientations.
func (m *Matcher) pairScore(target, ref market.Event) float64 {
	straight := (Similarity(m.scorer, target.Home, ref.Home) +
		Similarity(m.scorer, target.Away, ref.Away)) / 2
	swapped := (Similarity(m.scorer, target.Home, ref.Away) +
		Similarity(m.scorer, target.Away, ref.Home)) / 2
	if swapped > straight {
		return swapped
	}
	return straight
}
