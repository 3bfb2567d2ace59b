// Package metrics provides Prometheus metrics for the detection engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// EngineMetrics collects and exposes engine-related Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Refresh metrics
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	EventsFetched   *prometheus.CounterVec
	MatchedPairs    *prometheus.GaugeVec

	// Detection metrics
	ValueBetsFound *prometheus.CounterVec
	ValueBetEV     *prometheus.HistogramVec

	// Ledger metrics
	BetsPlaced   *prometheus.CounterVec
	BetsSettled  *prometheus.CounterVec
	StakeAmount  *prometheus.HistogramVec
	Bankroll     *prometheus.GaugeVec
	PendingBets  *prometheus.GaugeVec
	CumulativePL *prometheus.GaugeVec
}

// NewEngineMetrics creates a new engine metrics collector.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		RefreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsedge_refresh_runs_total",
				Help: "Total number of refresh cycles",
			},
			[]string{"status"},
		),
		RefreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddsedge_refresh_duration_seconds",
				Help:    "Refresh cycle duration",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4m
			},
			[]string{},
		),
		EventsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsedge_events_fetched_total",
				Help: "Events fetched from the feeds",
			},
			[]string{"feed", "sport"},
		),
		MatchedPairs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oddsedge_matched_pairs",
				Help: "Event pairs matched in the last refresh",
			},
			[]string{"sport"},
		),

		ValueBetsFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsedge_value_bets_total",
				Help: "Value bets detected",
			},
			[]string{"sport", "market_type"},
		),
		ValueBetEV: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddsedge_value_bet_ev_percent",
				Help:    "EV percentage of detected value bets",
				Buckets: []float64{1, 2, 3, 5, 7.5, 10, 15, 20, 30, 50},
			},
			[]string{"market_type"},
		),

		BetsPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsedge_bets_placed_total",
				Help: "Bets placed on the virtual bankroll",
			},
			[]string{"sport"},
		),
		BetsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsedge_bets_settled_total",
				Help: "Bets settled, by outcome",
			},
			[]string{"outcome"},
		),
		StakeAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddsedge_stake_amount",
				Help:    "Stake sizes in bankroll currency",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 25, 50},
			},
			[]string{},
		),
		Bankroll: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oddsedge_bankroll",
				Help: "Current virtual bankroll",
			},
			[]string{},
		),
		PendingBets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oddsedge_pending_bets",
				Help: "Bets awaiting settlement",
			},
			[]string{},
		),
		CumulativePL: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oddsedge_cumulative_pl",
				Help: "Realized profit and loss since ledger creation",
			},
			[]string{},
		),
	}

	em.registerAll()

	return em
}

func (em *EngineMetrics) registerAll() {
	em.registry.MustRegister(
		em.RefreshRuns,
		em.RefreshDuration,
		em.EventsFetched,
		em.MatchedPairs,
		em.ValueBetsFound,
		em.ValueBetEV,
		em.BetsPlaced,
		em.BetsSettled,
		em.StakeAmount,
		em.Bankroll,
		em.PendingBets,
		em.CumulativePL,
	)
}

// Registry returns the prometheus registry.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// RecordRefresh records a completed refresh cycle.
func (em *EngineMetrics) RecordRefresh(status string, durationSec float64) {
	em.RefreshRuns.WithLabelValues(status).Inc()
	if durationSec > 0 {
		em.RefreshDuration.WithLabelValues().Observe(durationSec)
	}
}

// RecordFetch records events fetched from a feed.
func (em *EngineMetrics) RecordFetch(feed, sport string, count int) {
	em.EventsFetched.WithLabelValues(feed, sport).Add(float64(count))
}

// RecordValueBet records a detected value bet.
func (em *EngineMetrics) RecordValueBet(sport, marketType string, evPercent float64) {
	em.ValueBetsFound.WithLabelValues(sport, marketType).Inc()
	em.ValueBetEV.WithLabelValues(marketType).Observe(evPercent)
}

// RecordPlacement records a placed bet.
func (em *EngineMetrics) RecordPlacement(sport string, stake float64) {
	em.BetsPlaced.WithLabelValues(sport).Inc()
	em.StakeAmount.WithLabelValues().Observe(stake)
}

// RecordSettlement records a settled bet by outcome.
func (em *EngineMetrics) RecordSettlement(outcome string) {
	em.BetsSettled.WithLabelValues(outcome).Inc()
}

// UpdateLedger updates the bankroll gauges.
func (em *EngineMetrics) UpdateLedger(bankroll, cumulativePL decimal.Decimal, pending int) {
	em.Bankroll.WithLabelValues().Set(DecimalToFloat64(bankroll))
	em.CumulativePL.WithLabelValues().Set(DecimalToFloat64(cumulativePL))
	em.PendingBets.WithLabelValues().Set(float64(pending))
}

// DecimalToFloat64 safely converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Global instance for convenience
var defaultMetrics *EngineMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *EngineMetrics {
	once.Do(func() {
		defaultMetrics = NewEngineMetrics()
	})
	return defaultMetrics
}
