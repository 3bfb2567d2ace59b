package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/tmarchand/oddsedge/pkg/ledger"
)

// WriteLedgerCSV renders the bet history followed by a summary block,
// semicolon-separated so spreadsheets in European locales open it
// without an import dialog.
func WriteLedgerCSV(w io.Writer, s ledger.Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{
		"bet_id", "placed_at", "sport", "match", "market", "bet_on",
		"odds", "fair_prob", "ev_percent", "stake", "potential_return",
		"status", "settled_at", "profit", "result",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, bet := range s.RecentBets {
		settledAt := ""
		if bet.SettledAt != nil {
			settledAt = bet.SettledAt.Format(time.RFC3339)
		}
		profit := ""
		if bet.Profit != nil {
			profit = bet.Profit.StringFixed(2)
		}
		row := []string{
			bet.BetID,
			bet.PlacedAt.Format(time.RFC3339),
			bet.Sport,
			bet.MatchLabel(),
			bet.Market,
			bet.BetOn,
			fmt.Sprintf("%.2f", bet.TargetOdds),
			fmt.Sprintf("%.1f", bet.FairProbPct),
			fmt.Sprintf("%.2f", bet.EVPercent),
			bet.Stake.StringFixed(2),
			bet.PotentialReturn.StringFixed(2),
			string(bet.Status),
			settledAt,
			profit,
			bet.ResultInfo,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	// summary block after a separator row
	if err := cw.Write([]string{}); err != nil {
		return err
	}
	summaryRows := [][]string{
		{"initial_bankroll", s.InitialBankroll.StringFixed(2)},
		{"current_bankroll", s.CurrentBankroll.StringFixed(2)},
		{"total_staked", s.TotalStaked.StringFixed(2)},
		{"total_returned", s.TotalReturned.StringFixed(2)},
		{"total_profit", s.TotalProfit.StringFixed(2)},
		{"total_bets", fmt.Sprintf("%d", s.TotalBets)},
		{"won", fmt.Sprintf("%d", s.WonBets)},
		{"lost", fmt.Sprintf("%d", s.LostBets)},
		{"void", fmt.Sprintf("%d", s.VoidBets)},
		{"pending", fmt.Sprintf("%d", s.PendingBets)},
		{"win_rate_pct", fmt.Sprintf("%.1f", s.WinRatePct)},
		{"roi_pct", fmt.Sprintf("%.1f", s.ROIPct)},
	}
	for _, row := range summaryRows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
