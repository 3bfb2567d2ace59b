// Package feed defines the engine's external collaborators: the target
// book event feed, the reference consensus feed, and the match result
// resolver, plus an HTTP client for the scrape gateway implementing all
// three. Acquisition mechanics (browser automation, DOM scraping) live
// entirely behind the gateway; this package only consumes its normalized
// output.
package feed

import (
	"context"
	"time"

	"github.com/tmarchand/oddsedge/pkg/market"
)

// TargetFeed supplies the target book's current events and odds.
type TargetFeed interface {
	Events(ctx context.Context) ([]market.Event, error)
}

// ReferenceFeed supplies devig-ready consensus events for one sport.
type ReferenceFeed interface {
	ReferenceEvents(ctx context.Context, sportKey, marketFilter string) ([]market.ReferenceEvent, error)
}

// ResultStatus is the lifecycle state of a fixture at lookup time.
type ResultStatus string

const (
	StatusFinished  ResultStatus = "finished"
	StatusLive      ResultStatus = "live"
	StatusCancelled ResultStatus = "cancelled"
)

// MatchResult is the outcome of a fixture as reported by the results
// source. WinningOutcomes carries the book-facing names of every
// outcome that won (both the team name and draw synonyms for a draw).
type MatchResult struct {
	Status          ResultStatus `json:"status"`
	Score           string       `json:"score"`
	WinningOutcomes []string     `json:"winning_outcomes"`
	Home            string       `json:"home"`
	Away            string       `json:"away"`
}

// ResultQuery identifies the fixture a pending bet is waiting on.
type ResultQuery struct {
	MatchID   string
	Home      string
	Away      string
	StartTime time.Time
	Sport     string
}

// Resolver looks up the result of a fixture. A (nil, nil) return means
// no result is available yet; errors are lookup failures the caller
// must treat as transient.
type Resolver interface {
	Resolve(ctx context.Context, q ResultQuery) (*MatchResult, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, q ResultQuery) (*MatchResult, error)

func (f ResolverFunc) Resolve(ctx context.Context, q ResultQuery) (*MatchResult, error) {
	return f(ctx, q)
}
