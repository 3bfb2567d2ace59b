package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/config"
	"github.com/tmarchand/oddsedge/pkg/feed"
	"github.com/tmarchand/oddsedge/pkg/ledger"
	"github.com/tmarchand/oddsedge/pkg/market"
)

type stubTarget struct {
	events []market.Event
	err    error
	block  chan struct{} // when set, Events waits until closed
}

func (s *stubTarget) Events(ctx context.Context) ([]market.Event, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.events, s.err
}

type stubRef struct {
	events []market.ReferenceEvent
	err    error
}

func (s *stubRef) ReferenceEvents(ctx context.Context, sportKey, marketFilter string) ([]market.ReferenceEvent, error) {
	return s.events, s.err
}

func noResults(ctx context.Context, q feed.ResultQuery) (*feed.MatchResult, error) {
	return nil, nil
}

func testConfig() *config.Config {
	cfg, _ := config.Load("/nonexistent/config.yaml")
	cfg.Detection.Sports = []config.Sport{
		{Name: "Football", Key: "soccer_epl", Markets: []string{"h2h"}},
	}
	return cfg
}

func testBook(t *testing.T) *ledger.Book {
	t.Helper()
	store := ledger.NewStore(filepath.Join(t.TempDir(), "ledger.json"))
	book, err := ledger.Open(store, ledger.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return book
}

func h2hEvent(home, away string, odds ...float64) market.Event {
	names := []string{home, "Draw", away}
	outcomes := make([]market.Outcome, len(odds))
	for i, o := range odds {
		outcomes[i] = market.Outcome{Name: names[i], Odds: o}
	}
	return market.Event{
		Sport:     "Football",
		Home:      home,
		Away:      away,
		Market:    "h2h",
		Type:      market.TypeH2H,
		Outcomes:  outcomes,
		MatchID:   home + "-" + away,
		StartTime: time.Now().Add(24 * time.Hour),
	}
}

func TestRefreshEndToEnd(t *testing.T) {
	target := &stubTarget{events: []market.Event{
		// target offers 2.50 on a ~50% outcome: clear value
		h2hEvent("Arsenal", "Chelsea", 2.50, 3.80, 3.60),
	}}
	refEvent := h2hEvent("Arsenal FC", "Chelsea FC", 2.00, 3.60, 3.90)
	ref := &stubRef{events: []market.ReferenceEvent{
		{Event: refEvent, NumBooks: 6},
	}}

	book := testBook(t)
	eng := New(Options{
		Config:   testConfig(),
		Target:   target,
		Ref:      ref,
		Resolver: feed.ResolverFunc(noResults),
		Book:     book,
	})

	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	bets := eng.ValueBets()
	if len(bets) == 0 {
		t.Fatal("expected value bets from mispriced target odds")
	}
	if bets[0].BetOn != "Arsenal" {
		t.Errorf("bet on = %s, want Arsenal", bets[0].BetOn)
	}

	st := eng.Status()
	if st.Phase != PhaseReady {
		t.Errorf("phase = %s, want ready", st.Phase)
	}
	if st.Stats.ValueBets != len(bets) {
		t.Errorf("stats value bets = %d, want %d", st.Stats.ValueBets, len(bets))
	}
	if st.LastUpdate == nil {
		t.Error("last update not set")
	}

	// value bet above the auto-bet floor should have been staked
	if sum := book.Summary(); sum.TotalBets == 0 {
		t.Error("no bets placed on the ledger")
	}
}

func TestRefreshSingleFlight(t *testing.T) {
	block := make(chan struct{})
	target := &stubTarget{block: block}
	eng := New(Options{
		Config:   testConfig(),
		Target:   target,
		Ref:      &stubRef{},
		Resolver: feed.ResolverFunc(noResults),
		Book:     testBook(t),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Refresh(context.Background())
	}()

	// wait for the first refresh to take the slot
	deadline := time.After(2 * time.Second)
	for !eng.Running() {
		select {
		case <-deadline:
			t.Fatal("first refresh never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := eng.Refresh(context.Background()); !errors.Is(err, ErrRefreshRunning) {
		t.Errorf("concurrent refresh error = %v, want ErrRefreshRunning", err)
	}

	close(block)
	wg.Wait()

	if eng.Running() {
		t.Error("running flag not cleared")
	}
	// slot is free again
	if err := eng.Refresh(context.Background()); errors.Is(err, ErrRefreshRunning) {
		t.Error("refresh slot not released")
	}
}

func TestRefreshTargetFailure(t *testing.T) {
	eng := New(Options{
		Config:   testConfig(),
		Target:   &stubTarget{err: errors.New("gateway down")},
		Ref:      &stubRef{},
		Resolver: feed.ResolverFunc(noResults),
		Book:     testBook(t),
	})

	if err := eng.Refresh(context.Background()); err == nil {
		t.Fatal("expected error when target feed fails")
	}
	st := eng.Status()
	if st.Phase != PhaseError {
		t.Errorf("phase = %s, want error", st.Phase)
	}
	if st.LastError == "" {
		t.Error("last error not recorded")
	}
}

func TestRefreshReferenceFailureIsPartial(t *testing.T) {
	eng := New(Options{
		Config:   testConfig(),
		Target:   &stubTarget{events: []market.Event{h2hEvent("Arsenal", "Chelsea", 2.5, 3.8, 3.6)}},
		Ref:      &stubRef{err: errors.New("reference down")},
		Resolver: feed.ResolverFunc(noResults),
		Book:     testBook(t),
	})

	// a failing reference sport is skipped, not fatal
	if err := eng.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if st := eng.Status(); st.Phase != PhaseReady {
		t.Errorf("phase = %s, want ready", st.Phase)
	}
	if bets := eng.ValueBets(); len(bets) != 0 {
		t.Errorf("expected no value bets, got %d", len(bets))
	}
}
