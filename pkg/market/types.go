// Package market defines the event and outcome model shared by the odds
// pipeline: market families, outcomes with decimal odds, and the keyword
// tables used to classify outcome sides across languages.
package market

import (
	"fmt"
	"strings"
	"time"
)

// Type is the market family of an event.
type Type string

const (
	TypeH2H       Type = "h2h"        // 1X2, three-way
	TypeH2H2Way   Type = "h2h_2way"   // moneyline without draw
	TypeOverUnder Type = "over_under" // totals at a threshold
	TypeBTTS      Type = "btts"       // both teams to score
	TypeUnknown   Type = "unknown"
)

// HeadToHead reports whether t belongs to the head-to-head family.
// h2h and h2h_2way share outcome semantics and are detected together.
func (t Type) HeadToHead() bool {
	return t == TypeH2H || t == TypeH2H2Way
}

// Thresholded reports whether events of this type only compare at an
// equal threshold (no cross-threshold matching).
func (t Type) Thresholded() bool {
	return t == TypeOverUnder
}

// ParseType maps a market label ("h2h", "over_under_2.5", "btts") to a Type.
func ParseType(market string) Type {
	switch {
	case market == string(TypeBTTS):
		return TypeBTTS
	case strings.HasPrefix(market, string(TypeOverUnder)):
		return TypeOverUnder
	case market == string(TypeH2H2Way):
		return TypeH2H2Way
	case strings.HasPrefix(market, string(TypeH2H)):
		return TypeH2H
	default:
		return TypeUnknown
	}
}

// Outcome is one selection within a market. ImpliedProb and FairProb are
// zero until the outcome set has been devigged.
type Outcome struct {
	Name        string  `json:"name"`
	Odds        float64 `json:"odds"`
	ImpliedProb float64 `json:"implied_prob,omitempty"`
	FairProb    float64 `json:"fair_prob,omitempty"`
}

// Event is a normalized market from the target book.
type Event struct {
	Sport     string    `json:"sport"`
	SportKey  string    `json:"sport_key"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	Market    string    `json:"market"` // e.g. "h2h", "over_under_2.5", "btts"
	Type      Type      `json:"market_type"`
	Threshold float64   `json:"threshold,omitempty"` // over_under only
	Outcomes  []Outcome `json:"outcomes"`
	MatchID   string    `json:"match_id"`
	StartTime time.Time `json:"start_time"`
}

// ReferenceEvent is a sharper-market event used as the fair-probability
// consensus. NumBooks is the breadth of that consensus.
type ReferenceEvent struct {
	Event
	NumBooks int `json:"num_books"`
}

// OverUnderMarket returns the canonical market label for a totals threshold.
func OverUnderMarket(threshold float64) string {
	return fmt.Sprintf("%s_%g", TypeOverUnder, threshold)
}

// Side labels for totals and BTTS outcomes.
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
	SideYes   Side = "yes"
	SideNo    Side = "no"
	SideNone  Side = ""
)

// Keyword tables classifying outcome names. Kept as data so new feed
// languages only extend the tables. French entries match the target book.
var (
	overKeywords  = []string{"over", "plus", "more than"}
	underKeywords = []string{"under", "moins", "less than"}
	yesKeywords   = []string{"yes", "oui"}
	noKeywords    = []string{"no", "non"}
)

// DrawSynonyms is the equivalence class of draw outcome names, compared
// on normalized form.
var DrawSynonyms = map[string]bool{
	"draw":      true,
	"nul":       true,
	"match nul": true,
	"x":         true,
	"tie":       true,
}

// OverUnderSide classifies a totals outcome name, SideNone if neither set
// of keywords matches.
func OverUnderSide(name string) Side {
	n := strings.ToLower(name)
	for _, k := range overKeywords {
		if strings.Contains(n, k) {
			return SideOver
		}
	}
	for _, k := range underKeywords {
		if strings.Contains(n, k) {
			return SideUnder
		}
	}
	return SideNone
}

// BTTSSide classifies a both-teams-to-score outcome name.
func BTTSSide(name string) Side {
	n := strings.ToLower(name)
	for _, k := range yesKeywords {
		if strings.Contains(n, k) {
			return SideYes
		}
	}
	for _, k := range noKeywords {
		if strings.Contains(n, k) {
			return SideNo
		}
	}
	return SideNone
}
