// Package engine orchestrates the refresh cycle: fetch both feeds,
// detect value bets, settle finished bets and place new ones, then
// publish the results to the dashboard surfaces.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/config"
	"github.com/tmarchand/oddsedge/pkg/detect"
	"github.com/tmarchand/oddsedge/pkg/feed"
	"github.com/tmarchand/oddsedge/pkg/ledger"
	"github.com/tmarchand/oddsedge/pkg/market"
	"github.com/tmarchand/oddsedge/pkg/metrics"
	"github.com/tmarchand/oddsedge/pkg/recorder"
	"github.com/tmarchand/oddsedge/pkg/stream"
)

// ErrRefreshRunning is returned when a refresh is requested while one
// is already in flight. Requests are rejected, never queued.
var ErrRefreshRunning = errors.New("refresh already running")

// Phase is the engine's coarse lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// maxLogEntries bounds the in-memory progress log.
const maxLogEntries = 30

// Stats summarizes the last completed refresh.
type Stats struct {
	TargetEvents    int           `json:"target_events"`
	ReferenceEvents int           `json:"reference_events"`
	MatchedPairs    int           `json:"matched_pairs"`
	ValueBets       int           `json:"value_bets"`
	BetsPlaced      int           `json:"bets_placed"`
	BetsSettled     int           `json:"bets_settled"`
	Duration        time.Duration `json:"duration_ms"`
}

// Status is a point-in-time snapshot of the engine for the API.
type Status struct {
	Phase      Phase      `json:"phase"`
	Progress   string     `json:"progress,omitempty"`
	Log        []string   `json:"log"`
	Stats      Stats      `json:"stats"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Engine runs detection cycles over the configured sports and feeds
// every outcome into the ledger, recorder, metrics and stream hub.
type Engine struct {
	cfg      *config.Config
	target   feed.TargetFeed
	ref      feed.ReferenceFeed
	resolver feed.Resolver
	detector *detect.Detector
	book     *ledger.Book
	rec      recorder.Recorder
	hub      *stream.Hub
	met      *metrics.EngineMetrics
	log      *zap.Logger

	mu         sync.Mutex
	running    bool
	phase      Phase
	progress   string
	logRing    []string
	stats      Stats
	lastUpdate time.Time
	lastError  string
	valueBets  []detect.ValueBet
}

// Options carries the engine's collaborators. Nil recorder, hub,
// metrics and logger are replaced with inert implementations.
type Options struct {
	Config   *config.Config
	Target   feed.TargetFeed
	Ref      feed.ReferenceFeed
	Resolver feed.Resolver
	Detector *detect.Detector
	Book     *ledger.Book
	Recorder recorder.Recorder
	Hub      *stream.Hub
	Metrics  *metrics.EngineMetrics
	Logger   *zap.Logger
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Detector == nil {
		opts.Detector = detect.NewDetector(nil)
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		cfg:      opts.Config,
		target:   opts.Target,
		ref:      opts.Ref,
		resolver: opts.Resolver,
		detector: opts.Detector,
		book:     opts.Book,
		rec:      opts.Recorder,
		hub:      opts.Hub,
		met:      opts.Metrics,
		log:      opts.Logger,
		phase:    PhaseIdle,
	}
}

// ValueBets returns the results of the last completed refresh.
func (e *Engine) ValueBets() []detect.ValueBet {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]detect.ValueBet, len(e.valueBets))
	copy(out, e.valueBets)
	return out
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Phase:     e.phase,
		Progress:  e.progress,
		Log:       append([]string(nil), e.logRing...),
		Stats:     e.stats,
		LastError: e.lastError,
	}
	if !e.lastUpdate.IsZero() {
		t := e.lastUpdate
		st.LastUpdate = &t
	}
	return st
}

// Running reports whether a refresh is in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Refresh runs one full detection cycle. Only one refresh runs at a
// time; a second call while one is in flight fails fast with
// ErrRefreshRunning.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRefreshRunning
	}
	e.running = true
	e.phase = PhaseLoading
	e.progress = "starting"
	e.logRing = nil
	e.lastError = ""
	e.mu.Unlock()

	started := time.Now()
	run := &recorder.RefreshRun{StartedAt: started}

	err := e.refresh(ctx, run)

	run.Duration = time.Since(started)

	e.mu.Lock()
	e.running = false
	e.stats.Duration = run.Duration
	if err != nil {
		e.phase = PhaseError
		e.lastError = err.Error()
		run.Err = err.Error()
	} else {
		e.phase = PhaseReady
		e.lastUpdate = time.Now()
	}
	e.mu.Unlock()

	status := "ok"
	if err != nil {
		status = "error"
	}
	e.met.RecordRefresh(status, run.Duration.Seconds())
	if recErr := e.rec.RecordRefresh(run); recErr != nil {
		e.log.Warn("record refresh failed", zap.Error(recErr))
	}
	if e.hub != nil {
		e.hub.BroadcastRefresh(e.Status())
	}

	if err != nil {
		e.log.Error("refresh failed", zap.Error(err), zap.Duration("duration", run.Duration))
		return err
	}
	e.log.Info("refresh complete",
		zap.Int("value_bets", run.ValueBets),
		zap.Int("bets_placed", run.BetsPlaced),
		zap.Int("bets_settled", run.BetsSettled),
		zap.Duration("duration", run.Duration))
	return nil
}

func (e *Engine) refresh(ctx context.Context, run *recorder.RefreshRun) error {
	e.step("fetching target events")
	targets, err := e.target.Events(ctx)
	if err != nil {
		return fmt.Errorf("fetch target events: %w", err)
	}
	run.TargetEvents = len(targets)
	e.met.RecordFetch("target", "", len(targets))
	e.step(fmt.Sprintf("target events: %d", len(targets)))

	bySport := groupBySport(targets)

	var all []detect.ValueBet
	matched := 0
	refTotal := 0
	for _, sport := range e.cfg.EnabledSports() {
		evs := bySport[sport.Name]
		if len(evs) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		e.step(fmt.Sprintf("fetching reference odds: %s", sport.Name))
		refs, err := e.ref.ReferenceEvents(ctx, sport.Key, marketFilter(sport))
		if err != nil {
			// one unreachable sport must not sink the whole cycle
			e.log.Warn("reference fetch failed",
				zap.String("sport", sport.Name), zap.Error(err))
			e.step(fmt.Sprintf("reference fetch failed: %s", sport.Name))
			continue
		}
		refTotal += len(refs)
		e.met.RecordFetch("reference", sport.Name, len(refs))

		found := e.detector.Find(evs, refs, e.cfg.Detection.MinEV)
		matched += len(found)
		for _, vb := range found {
			e.met.RecordValueBet(vb.Sport, string(vb.Type), vb.EVPercent)
		}
		all = append(all, found...)
		e.step(fmt.Sprintf("%s: %d value bets", sport.Name, len(found)))
	}
	run.ReferenceEvents = refTotal
	run.MatchedPairs = matched

	all = detect.Dedupe(all)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].EVPercent > all[j].EVPercent
	})
	run.ValueBets = len(all)

	if err := e.rec.RecordValueBets(all); err != nil {
		e.log.Warn("record value bets failed", zap.Error(err))
	}

	e.step("settling finished bets")
	settleReport, err := e.book.SettleBets(ctx, e.resolver, false)
	if err != nil {
		return fmt.Errorf("settle bets: %w", err)
	}
	run.BetsSettled = settleReport.Settled
	for _, bet := range settleReport.Details {
		e.met.RecordSettlement(string(bet.Status))
		if err := e.rec.RecordSettlement(&bet); err != nil {
			e.log.Warn("record settlement failed", zap.Error(err))
		}
		if e.hub != nil {
			e.hub.BroadcastBetSettled(bet)
		}
	}

	e.step("placing bets")
	placeReport, err := e.book.PlaceBets(all)
	if err != nil {
		return fmt.Errorf("place bets: %w", err)
	}
	run.BetsPlaced = placeReport.Placed
	for _, bet := range placeReport.Details {
		stake, _ := bet.Stake.Float64()
		e.met.RecordPlacement(bet.Sport, stake)
		if e.hub != nil {
			e.hub.BroadcastBetPlaced(bet)
		}
	}

	summary := e.book.Summary()
	e.met.UpdateLedger(summary.CurrentBankroll, summary.TotalProfit, summary.PendingBets)

	e.mu.Lock()
	e.valueBets = all
	e.stats = Stats{
		TargetEvents:    run.TargetEvents,
		ReferenceEvents: run.ReferenceEvents,
		MatchedPairs:    run.MatchedPairs,
		ValueBets:       run.ValueBets,
		BetsPlaced:      run.BetsPlaced,
		BetsSettled:     run.BetsSettled,
	}
	e.mu.Unlock()

	if e.hub != nil {
		e.hub.BroadcastValueBets(all)
		e.hub.BroadcastBankroll(summary)
	}
	return nil
}

// Settle runs a settlement sweep outside the refresh cycle, on demand
// from the API.
func (e *Engine) Settle(ctx context.Context, force bool) (*ledger.SettleReport, error) {
	report, err := e.book.SettleBets(ctx, e.resolver, force)
	if err != nil {
		return nil, err
	}
	for _, bet := range report.Details {
		e.met.RecordSettlement(string(bet.Status))
		if recErr := e.rec.RecordSettlement(&bet); recErr != nil {
			e.log.Warn("record settlement failed", zap.Error(recErr))
		}
		if e.hub != nil {
			e.hub.BroadcastBetSettled(bet)
		}
	}
	if report.Settled > 0 && e.hub != nil {
		e.hub.BroadcastBankroll(e.book.Summary())
	}
	return report, nil
}

// step records a progress message visible in Status.
func (e *Engine) step(msg string) {
	e.mu.Lock()
	e.progress = msg
	e.logRing = append(e.logRing, time.Now().Format("15:04:05")+" "+msg)
	if len(e.logRing) > maxLogEntries {
		e.logRing = e.logRing[len(e.logRing)-maxLogEntries:]
	}
	e.mu.Unlock()
	e.log.Debug("refresh step", zap.String("step", msg))
}

func groupBySport(events []market.Event) map[string][]market.Event {
	out := make(map[string][]market.Event)
	for _, ev := range events {
		out[ev.Sport] = append(out[ev.Sport], ev)
	}
	return out
}

// marketFilter renders a sport's market list as the reference feed's
// comma-separated filter parameter.
func marketFilter(sport config.Sport) string {
	filter := ""
	for i, m := range sport.Markets {
		if i > 0 {
			filter += ","
		}
		filter += m
	}
	return filter
}
