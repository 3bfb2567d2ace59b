// Package server exposes the dashboard HTTP API: detection results,
// refresh control, bankroll operations and the streaming endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/detect"
	"github.com/tmarchand/oddsedge/pkg/engine"
	"github.com/tmarchand/oddsedge/pkg/ledger"
	"github.com/tmarchand/oddsedge/pkg/metrics"
	"github.com/tmarchand/oddsedge/pkg/stream"
)

// refreshTimeout bounds a background refresh kicked off over the API.
const refreshTimeout = 10 * time.Minute

type Server struct {
	log    *zap.Logger
	engine *engine.Engine
	book   *ledger.Book
	hub    *stream.Hub
	met    *metrics.EngineMetrics
}

func NewServer(log *zap.Logger, eng *engine.Engine, book *ledger.Book, hub *stream.Hub, met *metrics.EngineMetrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, engine: eng, book: book, hub: hub, met: met}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/api/valuebets", s.valueBets)
	mux.HandleFunc("/api/refresh", s.refresh)
	mux.HandleFunc("/api/status", s.status)
	mux.HandleFunc("/api/bankroll", s.bankroll)
	mux.HandleFunc("/api/bankroll/settle", s.settle)
	mux.HandleFunc("/api/bankroll/settle_manual", s.settleManual)
	mux.HandleFunc("/api/bankroll/reset", s.reset)
	mux.HandleFunc("/api/bankroll/export", s.exportCSV)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}
	if s.met != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.met.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// valueBets serves the last detection results, optionally filtered by
// sport, minimum EV and an odds range.
func (s *Server) valueBets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	sport := q.Get("sport")
	minEV := parseFloat(q.Get("min_ev"), 0)
	minOdds := parseFloat(q.Get("min_odds"), 0)
	maxOdds := parseFloat(q.Get("max_odds"), 0)

	bets := s.engine.ValueBets()
	filtered := make([]detect.ValueBet, 0, len(bets))
	for _, vb := range bets {
		if sport != "" && vb.Sport != sport {
			continue
		}
		if minEV > 0 && vb.EVPercent < minEV {
			continue
		}
		if minOdds > 0 && vb.TargetOdds < minOdds {
			continue
		}
		if maxOdds > 0 && vb.TargetOdds > maxOdds {
			continue
		}
		filtered = append(filtered, vb)
	}

	writeJSON(w, map[string]interface{}{
		"count":      len(filtered),
		"value_bets": filtered,
	})
}

// refresh starts a detection cycle in the background. A refresh already
// in flight is reported with 409, never queued.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.engine.Running() {
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, map[string]string{"error": "refresh already running"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := s.engine.Refresh(ctx); err != nil && !errors.Is(err, engine.ErrRefreshRunning) {
			s.log.Error("background refresh failed", zap.Error(err))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "started"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.engine.Status())
}

func (s *Server) bankroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.book.Summary())
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Force bool `json:"force"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body means force=false
	}

	report, err := s.engine.Settle(r.Context(), req.Force)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *Server) settleManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		BetID   string `json:"bet_id"`
		Outcome string `json:"outcome"`
		Score   string `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.BetID == "" || req.Outcome == "" {
		http.Error(w, "bet_id and outcome are required", http.StatusBadRequest)
		return
	}

	result, err := s.book.SettleManually(req.BetID, ledger.BetStatus(req.Outcome), req.Score)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !result.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	writeJSON(w, result)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body resets to configured initial
	}

	summary, err := s.book.Reset(decimal.NewFromFloat(req.Amount))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="bankroll_`+time.Now().Format("20060102_150405")+`.csv"`)
	if err := WriteLedgerCSV(w, s.book.Summary()); err != nil {
		s.log.Error("csv export failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
