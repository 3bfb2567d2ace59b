// oddsedge is the value-bet detection daemon. It scans the target book
// against a sharper consensus on a schedule, tracks a virtual bankroll,
// and serves the dashboard API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/config"
	"github.com/tmarchand/oddsedge/pkg/engine"
	"github.com/tmarchand/oddsedge/pkg/feed"
	"github.com/tmarchand/oddsedge/pkg/ledger"
	"github.com/tmarchand/oddsedge/pkg/logging"
	"github.com/tmarchand/oddsedge/pkg/metrics"
	"github.com/tmarchand/oddsedge/pkg/recorder"
	"github.com/tmarchand/oddsedge/pkg/server"
	"github.com/tmarchand/oddsedge/pkg/stream"
)

var (
	configPath  = flag.String("config", "configs/config.yaml", "Path to config file")
	listenAddr  = flag.String("http", "", "HTTP listen address (overrides config)")
	runOnStart  = flag.Bool("refresh-on-start", true, "Run a refresh immediately on startup")
	disableCron = flag.Bool("no-cron", false, "Disable the scheduled refresh")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if *listenAddr != "" {
		cfg.Server.Listen = *listenAddr
	}

	log, err := logging.New("oddsedge", cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting oddsedge",
		zap.String("gateway", cfg.Gateway.BaseURL),
		zap.String("listen", cfg.Server.Listen),
		zap.Int("sports", len(cfg.EnabledSports())))

	gateway := feed.NewClient(
		feed.WithBaseURL(cfg.Gateway.BaseURL),
		feed.WithRateLimit(cfg.Gateway.RateLimit, 2),
	)

	ledgerCfg := ledger.Config{
		InitialBankroll: decimal.NewFromFloat(cfg.Bankroll.Initial),
		KellyMultiplier: cfg.Bankroll.KellyMultiplier,
		MaxStakePercent: cfg.Bankroll.MaxStakePct,
		MinStake:        decimal.NewFromFloat(cfg.Bankroll.MinStake),
		MinEVToBet:      cfg.Bankroll.MinEVToBet,
		MinBooksToBet:   cfg.Bankroll.MinBooksToBet,
		AutoBet:         *cfg.Bankroll.AutoBet,
		RecentBets:      ledger.DefaultConfig().RecentBets,
	}
	book, err := ledger.Open(ledger.NewStore(cfg.Bankroll.LedgerFile), ledgerCfg, log)
	if err != nil {
		log.Fatal("open ledger", zap.Error(err))
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn("sqlite recorder unavailable, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	hub := stream.NewHub()
	go hub.Run()

	met := metrics.NewEngineMetrics()

	eng := engine.New(engine.Options{
		Config:   cfg,
		Target:   gateway,
		Ref:      gateway,
		Resolver: gateway,
		Book:     book,
		Recorder: rec,
		Hub:      hub,
		Metrics:  met,
		Logger:   log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*disableCron {
		c := cron.New(cron.WithSeconds())
		_, err := c.AddFunc(cfg.Schedule.RefreshCron, func() {
			if err := eng.Refresh(ctx); err != nil && !errors.Is(err, engine.ErrRefreshRunning) {
				log.Error("scheduled refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			log.Fatal("register refresh cron", zap.Error(err))
		}
		c.Start()
		defer c.Stop()
		log.Info("refresh scheduled", zap.String("cron", cfg.Schedule.RefreshCron))
	}

	if *runOnStart {
		go func() {
			if err := eng.Refresh(ctx); err != nil {
				log.Error("initial refresh failed", zap.Error(err))
			}
		}()
	}

	srv := server.NewServer(log, eng, book, hub, met)
	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Listen))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	sum := book.Summary()
	log.Info("final bankroll",
		zap.String("current", sum.CurrentBankroll.String()),
		zap.String("profit", sum.TotalProfit.String()),
		zap.Int("pending", sum.PendingBets))
}
