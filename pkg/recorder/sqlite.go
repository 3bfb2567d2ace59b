package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tmarchand/oddsedge/pkg/detect"
	"github.com/tmarchand/oddsedge/pkg/ledger"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads never block the refresh writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at       INTEGER NOT NULL,
			duration_ms      INTEGER,
			target_events    INTEGER,
			reference_events INTEGER,
			matched_pairs    INTEGER,
			value_bets       INTEGER,
			bets_placed      INTEGER,
			bets_settled     INTEGER,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON refresh_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS value_bets (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			detected_at      INTEGER NOT NULL,
			sport            TEXT,
			home             TEXT,
			away             TEXT,
			market           TEXT,
			market_type      TEXT,
			bet_on           TEXT,
			target_odds      REAL,
			fair_prob        REAL,
			implied_prob     REAL,
			ev_percent       REAL,
			match_id         TEXT,
			start_time       INTEGER,
			num_books        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vb_ts ON value_bets(detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_vb_match ON value_bets(match_id)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			settled_at   INTEGER NOT NULL,
			bet_id       TEXT,
			match_id     TEXT,
			bet_on       TEXT,
			market       TEXT,
			stake        REAL,
			odds         REAL,
			status       TEXT,
			profit       REAL,
			result_info  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settle_ts ON settlements(settled_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(run *RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_runs
		(started_at, duration_ms, target_events, reference_events,
		 matched_pairs, value_bets, bets_placed, bets_settled, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.StartedAt.Unix(), run.Duration.Milliseconds(),
		run.TargetEvents, run.ReferenceEvents, run.MatchedPairs,
		run.ValueBets, run.BetsPlaced, run.BetsSettled, run.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordValueBets(bets []detect.ValueBet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	for _, vb := range bets {
		_, err := r.db.Exec(`INSERT INTO value_bets
			(detected_at, sport, home, away, market, market_type, bet_on,
			 target_odds, fair_prob, implied_prob, ev_percent,
			 match_id, start_time, num_books)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			now, vb.Sport, vb.Home, vb.Away, vb.Market, string(vb.Type), vb.BetOn,
			vb.TargetOdds, vb.FairProbPct, vb.ImpliedProbPct, vb.EVPercent,
			vb.MatchID, vb.StartTime.Unix(), vb.NumBooks,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSettlement(bet *ledger.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var settledAt int64
	if bet.SettledAt != nil {
		settledAt = bet.SettledAt.Unix()
	}
	var profit float64
	if bet.Profit != nil {
		profit, _ = bet.Profit.Float64()
	}
	stake, _ := bet.Stake.Float64()

	_, err := r.db.Exec(`INSERT INTO settlements
		(settled_at, bet_id, match_id, bet_on, market, stake, odds, status, profit, result_info)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		settledAt, bet.BetID, bet.MatchID, bet.BetOn, bet.Market,
		stake, bet.TargetOdds, string(bet.Status), profit, bet.ResultInfo,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
