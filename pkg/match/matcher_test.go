package match

import (
	"testing"

	"github.com/tmarchand/oddsedge/pkg/market"
)

func event(home, away string) market.Event {
	return market.Event{Home: home, Away: away, Market: "h2h", Type: market.TypeH2H}
}

func refEvent(home, away string) market.ReferenceEvent {
	return market.ReferenceEvent{Event: event(home, away)}
}

func ouEvent(home, away string, threshold float64) market.Event {
	return market.Event{
		Home: home, Away: away,
		Market: market.OverUnderMarket(threshold), Type: market.TypeOverUnder,
		Threshold: threshold,
	}
}

func TestMatchEvents(t *testing.T) {
	m := NewMatcher(nil)

	targets := []market.Event{
		event("Arsenal", "Chelsea"),
		event("Olympique Lyonnais", "PSG"),
		event("Nowhere Town", "Imaginary United"),
	}
	refs := []market.ReferenceEvent{
		refEvent("Paris Saint Germain", "Olympique Lyonnais"), // swapped orientation
		refEvent("Arsenal FC", "Chelsea FC"),
		refEvent("Real Madrid", "Barcelona"),
	}

	pairs := m.Events(targets, refs)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}

	byHome := map[string]string{}
	for _, p := range pairs {
		byHome[p.Target.Home] = p.Reference.Home
	}
	if byHome["Arsenal"] != "Arsenal FC" {
		t.Errorf("Arsenal matched %q", byHome["Arsenal"])
	}
	// swapped home/away must still match
	if byHome["Olympique Lyonnais"] != "Paris Saint Germain" {
		t.Errorf("Lyon matched %q", byHome["Olympique Lyonnais"])
	}
}

func TestMatchEventsReferenceUsedOnce(t *testing.T) {
	m := NewMatcher(nil)

	// two near-identical targets compete for one reference
	targets := []market.Event{
		event("Arsenal", "Chelsea"),
		event("Arsenal FC", "Chelsea FC"),
	}
	refs := []market.ReferenceEvent{
		refEvent("Arsenal", "Chelsea"),
	}

	pairs := m.Events(targets, refs)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (reference reused)", len(pairs))
	}
	// greedy scan: the first target claims it
	if pairs[0].Target.Home != "Arsenal" {
		t.Errorf("first-scanned target should win, got %q", pairs[0].Target.Home)
	}
}

func TestMatchEventsBelowFloor(t *testing.T) {
	m := NewMatcher(nil)

	pairs := m.Events(
		[]market.Event{event("Arsenal", "Chelsea")},
		[]market.ReferenceEvent{refEvent("Bayern Munich", "Borussia Dortmund")},
	)
	if len(pairs) != 0 {
		t.Errorf("dissimilar fixtures matched: %+v", pairs)
	}
}

func TestMatchEventsThresholdPartition(t *testing.T) {
	m := NewMatcher(nil)

	targets := []market.Event{
		ouEvent("Arsenal", "Chelsea", 2.5),
		ouEvent("Arsenal", "Chelsea", 1.5),
	}
	refs := []market.ReferenceEvent{
		{Event: ouEvent("Arsenal FC", "Chelsea FC", 2.5)},
	}

	pairs := m.Events(targets, refs)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].Target.Threshold != 2.5 || pairs[0].Reference.Threshold != 2.5 {
		t.Errorf("cross-threshold pairing: target %v ref %v",
			pairs[0].Target.Threshold, pairs[0].Reference.Threshold)
	}
}

func TestMatchEventsEmpty(t *testing.T) {
	m := NewMatcher(nil)
	if pairs := m.Events(nil, []market.ReferenceEvent{refEvent("A", "B")}); pairs != nil {
		t.Errorf("nil targets produced pairs: %+v", pairs)
	}
	if pairs := m.Events([]market.Event{event("A", "B")}, nil); pairs != nil {
		t.Errorf("nil refs produced pairs: %+v", pairs)
	}
}
