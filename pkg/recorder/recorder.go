// Package recorder persists historical detection and settlement data
// for offline analysis. The engine works fine without it; the noop
// implementation is used when no database is configured.
package recorder

import (
	"time"

	"github.com/tmarchand/oddsedge/pkg/detect"
	"github.com/tmarchand/oddsedge/pkg/ledger"
)

// RefreshRun summarizes one completed refresh cycle.
type RefreshRun struct {
	StartedAt       time.Time
	Duration        time.Duration
	TargetEvents    int
	ReferenceEvents int
	MatchedPairs    int
	ValueBets       int
	BetsPlaced      int
	BetsSettled     int
	Err             string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRefresh(run *RefreshRun) error
	RecordValueBets(bets []detect.ValueBet) error
	RecordSettlement(bet *ledger.Bet) error
	Close() error
}

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRefresh(_ *RefreshRun) error         { return nil }
func (n *NoopRecorder) RecordValueBets(_ []detect.ValueBet) error { return nil }
func (n *NoopRecorder) RecordSettlement(_ *ledger.Bet) error      { return nil }
func (n *NoopRecorder) Close() error                              { return nil }
