package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/detect"
)

// Config holds the staking policy.
type Config struct {
	InitialBankroll decimal.Decimal
	KellyMultiplier float64 // fraction of full Kelly, e.g. 0.25
	MaxStakePercent float64 // hard cap as a fraction of bankroll
	MinStake        decimal.Decimal
	MinEVToBet      float64 // EV% floor for auto placement
	MinBooksToBet   int     // consensus breadth floor
	AutoBet         bool
	RecentBets      int // summary window, most recent first
}

// DefaultConfig returns the conservative quarter-Kelly policy.
func DefaultConfig() Config {
	return Config{
		InitialBankroll: decimal.NewFromInt(100),
		KellyMultiplier: 0.25,
		MaxStakePercent: 0.05,
		MinStake:        decimal.NewFromFloat(0.10),
		MinEVToBet:      1.0,
		MinBooksToBet:   3,
		AutoBet:         true,
		RecentBets:      50,
	}
}

// Book is the single-writer owner of the bankroll record. Every
// mutation is prepared on a clone, persisted, and only then swapped in:
// a failed write leaves both memory and disk on the previous state.
type Book struct {
	cfg   Config
	store *Store
	log   *zap.Logger

	// mu guards rec and serializes all mutations.
	mu  sync.Mutex
	rec *Record
}

// Open loads the ledger from the store, starting fresh at the configured
// initial bankroll when no record exists yet.
func Open(store *Store, cfg Config, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rec, err := store.Load()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = NewRecord(cfg.InitialBankroll)
		if err := store.Save(rec); err != nil {
			return nil, err
		}
		log.Info("created fresh ledger",
			zap.String("bankroll", cfg.InitialBankroll.String()))
	}
	return &Book{cfg: cfg, store: store, log: log, rec: rec}, nil
}

// commit persists work and makes it the visible record. Caller holds mu.
func (b *Book) commit(work *Record) error {
	work.LastUpdated = time.Now()
	if err := b.store.Save(work); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	b.rec = work
	return nil
}

// newBetID returns a short unique bet identifier.
func newBetID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// PlaceBets evaluates candidates and stakes those passing the dedup and
// quality filters, debiting the bankroll per bet. Stakes are sized
// against the bankroll as of batch start so a batch is deterministic.
// The whole batch becomes durable at once.
func (b *Book) PlaceBets(candidates []detect.ValueBet) (*PlaceReport, error) {
	report := &PlaceReport{Details: []Bet{}}

	if !b.cfg.AutoBet {
		report.Skipped = len(candidates)
		return report, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	work := b.rec.Clone()

	existing := make(map[string]bool, len(work.Bets))
	for i := range work.Bets {
		existing[work.Bets[i].DedupKey()] = true
	}

	sizingBankroll := work.CurrentBankroll

	for _, vb := range candidates {
		if vb.MatchID == "" {
			report.Skipped++
			continue
		}
		key := vb.MatchID + "_" + vb.BetOn + "_" + vb.Market
		if existing[key] {
			report.Skipped++
			continue
		}
		if vb.EVPercent < b.cfg.MinEVToBet || vb.NumBooks < b.cfg.MinBooksToBet {
			report.Skipped++
			continue
		}

		sizing := KellyStake(vb.TargetOdds, vb.FairProbPct, sizingBankroll,
			b.cfg.KellyMultiplier, b.cfg.MaxStakePercent, b.cfg.MinStake)
		if !sizing.Stake.IsPositive() {
			report.Skipped++
			continue
		}

		bet := Bet{
			ValueBet:        vb,
			BetID:           newBetID(),
			PlacedAt:        time.Now(),
			Stake:           sizing.Stake,
			KellyFraction:   sizing.KellyFraction,
			KellyUsed:       sizing.KellyUsed,
			PotentialReturn: sizing.Stake.Mul(decimal.NewFromFloat(vb.TargetOdds)).Round(2),
			Status:          StatusPending,
		}

		work.Bets = append(work.Bets, bet)
		work.CurrentBankroll = work.CurrentBankroll.Sub(sizing.Stake)
		work.TotalStaked = work.TotalStaked.Add(sizing.Stake)
		existing[key] = true

		report.Placed++
		report.Details = append(report.Details, bet)
	}

	if report.Placed == 0 {
		return report, nil
	}
	if err := b.commit(work); err != nil {
		return nil, err
	}

	b.log.Info("placed bets",
		zap.Int("placed", report.Placed),
		zap.Int("skipped", report.Skipped),
		zap.String("bankroll", b.rec.CurrentBankroll.String()))
	return report, nil
}

// Reset discards the ledger and starts over at the given bankroll
// (the configured initial bankroll when amount is not positive).
func (b *Book) Reset(amount decimal.Decimal) (*Summary, error) {
	if !amount.IsPositive() {
		amount = b.cfg.InitialBankroll
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	work := NewRecord(amount)
	if err := b.commit(work); err != nil {
		return nil, err
	}
	b.log.Info("ledger reset", zap.String("bankroll", amount.String()))
	sum := b.summaryLocked()
	return &sum, nil
}
