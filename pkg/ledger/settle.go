package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tmarchand/oddsedge/pkg/feed"
	"github.com/tmarchand/oddsedge/pkg/market"
	"github.com/tmarchand/oddsedge/pkg/match"
)

// inProgressWindow is how long after kickoff a fixture is assumed to
// still be running; results inside the window are not looked up, so a
// live or incomplete score can never settle a bet.
const inProgressWindow = 2 * time.Hour

// SettleBets resolves pending bets against the result source, advancing
// each through pending -> won|lost|void exactly once. Lookup failures,
// missing results and unparseable scores leave a bet pending; one bad
// bet never aborts the sweep. With force set, a diagnostic report is
// produced for every bet that stayed pending, without changing state.
func (b *Book) SettleBets(ctx context.Context, resolver feed.Resolver, force bool) (*SettleReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := &SettleReport{Details: []Bet{}}
	work := b.rec.Clone()
	now := time.Now()

	for i := range work.Bets {
		bet := &work.Bets[i]
		if bet.Status != StatusPending {
			continue
		}

		if !bet.StartTime.IsZero() && bet.StartTime.After(now) {
			report.StillPending++
			if force {
				remaining := bet.StartTime.Sub(now).Round(time.Minute)
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"not_started", fmt.Sprintf("kickoff in %s", remaining)))
			}
			continue
		}
		if !bet.StartTime.IsZero() && now.Sub(bet.StartTime) < inProgressWindow {
			report.StillPending++
			if force {
				elapsed := now.Sub(bet.StartTime).Round(time.Minute)
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"in_progress", fmt.Sprintf("match running for %s", elapsed)))
			}
			continue
		}

		result, err := resolver.Resolve(ctx, feed.ResultQuery{
			MatchID:   bet.MatchID,
			Home:      bet.Home,
			Away:      bet.Away,
			StartTime: bet.StartTime,
			Sport:     bet.Sport,
		})
		if err != nil {
			b.log.Warn("result lookup failed",
				zap.String("bet_id", bet.BetID),
				zap.String("match_id", bet.MatchID),
				zap.Error(err))
			report.StillPending++
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"error", fmt.Sprintf("lookup failed: %v", err)))
			}
			continue
		}
		if result == nil {
			report.StillPending++
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"no_result", "result not available yet"))
			}
			continue
		}

		if result.Status == feed.StatusCancelled {
			settleVoid(work, bet, now, "cancelled")
			report.Settled++
			report.Details = append(report.Details, *bet)
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"void", "match cancelled, stake refunded"))
			}
			continue
		}

		won := determineWin(bet, result)
		if won == nil {
			report.StillPending++
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"no_result", "score not usable for this market"))
			}
			continue
		}

		if *won {
			payout := settleWon(work, bet, now, result.Score)
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"won", fmt.Sprintf("WON, score %s, +%s", result.Score, payout.Sub(bet.Stake).String())))
			}
		} else {
			settleLost(bet, now, result.Score)
			if force {
				report.BetReports = append(report.BetReports, pendingReport(bet,
					"lost", fmt.Sprintf("LOST, score %s, -%s", result.Score, bet.Stake.String())))
			}
		}
		report.Settled++
		report.Details = append(report.Details, *bet)
	}

	if report.Settled > 0 {
		if err := b.commit(work); err != nil {
			return nil, err
		}
		b.log.Info("settled bets",
			zap.Int("settled", report.Settled),
			zap.Int("still_pending", report.StillPending),
			zap.String("bankroll", b.rec.CurrentBankroll.String()))
	}
	return report, nil
}

// SettleManually forces a pending bet into a terminal state with the
// same crediting rules as automatic settlement. Unknown ids and
// already-settled bets are reported as structured failures with no
// state change.
func (b *Book) SettleManually(betID string, outcome BetStatus, score string) (*ManualResult, error) {
	if outcome != StatusWon && outcome != StatusLost && outcome != StatusVoid {
		return &ManualResult{Success: false, Message: fmt.Sprintf("invalid outcome: %s", outcome)}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	work := b.rec.Clone()
	bet := findBet(work, betID)
	if bet == nil {
		return &ManualResult{Success: false, Message: fmt.Sprintf("bet %s not found", betID)}, nil
	}
	if bet.Status != StatusPending {
		return &ManualResult{Success: false, Message: fmt.Sprintf("bet already settled (%s)", bet.Status)}, nil
	}

	now := time.Now()
	info := score
	if info == "" {
		info = "manual"
	}

	var msg string
	switch outcome {
	case StatusWon:
		payout := settleWon(work, bet, now, info)
		msg = fmt.Sprintf("WON, +%s", payout.Sub(bet.Stake).String())
	case StatusLost:
		settleLost(bet, now, info)
		msg = fmt.Sprintf("LOST, -%s", bet.Stake.String())
	case StatusVoid:
		settleVoid(work, bet, now, info)
		msg = "VOID, stake refunded"
	}

	if err := b.commit(work); err != nil {
		return nil, err
	}
	b.log.Info("manual settlement",
		zap.String("bet_id", betID),
		zap.String("outcome", string(outcome)))

	sum := b.summaryLocked()
	return &ManualResult{Success: true, Message: msg, Summary: &sum}, nil
}

func findBet(rec *Record, betID string) *Bet {
	for i := range rec.Bets {
		if rec.Bets[i].BetID == betID {
			return &rec.Bets[i]
		}
	}
	return nil
}

// settleWon credits the payout and returns it.
func settleWon(rec *Record, bet *Bet, now time.Time, info string) decimal.Decimal {
	payout := bet.Stake.Mul(decimal.NewFromFloat(bet.TargetOdds)).Round(2)
	profit := payout.Sub(bet.Stake)
	bet.Status = StatusWon
	bet.Profit = &profit
	bet.SettledAt = &now
	bet.ResultInfo = info
	rec.CurrentBankroll = rec.CurrentBankroll.Add(payout)
	rec.TotalReturned = rec.TotalReturned.Add(payout)
	return payout
}

func settleLost(bet *Bet, now time.Time, info string) {
	profit := bet.Stake.Neg()
	bet.Status = StatusLost
	bet.Profit = &profit
	bet.SettledAt = &now
	bet.ResultInfo = info
}

// settleVoid refunds the stake.
func settleVoid(rec *Record, bet *Bet, now time.Time, info string) {
	profit := decimal.Zero
	bet.Status = StatusVoid
	bet.Profit = &profit
	bet.SettledAt = &now
	bet.ResultInfo = info
	rec.CurrentBankroll = rec.CurrentBankroll.Add(bet.Stake)
}

func pendingReport(bet *Bet, reason, message string) BetReport {
	return BetReport{
		BetID:   bet.BetID,
		Match:   bet.MatchLabel(),
		BetOn:   bet.BetOn,
		Reason:  reason,
		Message: message,
	}
}

// determineWin applies the market-aware win check. A nil return means
// the result cannot settle this bet (for instance an unparseable score)
// and it must stay pending.
func determineWin(bet *Bet, result *feed.MatchResult) *bool {
	if bet.Type.HeadToHead() {
		won := checkH2HWin(bet.BetOn, result.WinningOutcomes)
		return &won
	}

	home, away, ok := ParseScore(result.Score)
	if !ok {
		return nil
	}

	switch bet.Type {
	case market.TypeOverUnder:
		total := float64(home + away)
		var won bool
		if market.OverUnderSide(bet.BetOn) == market.SideOver {
			won = total > bet.Threshold
		} else {
			won = total <= bet.Threshold
		}
		return &won
	case market.TypeBTTS:
		both := home > 0 && away > 0
		won := both == (market.BTTSSide(bet.BetOn) == market.SideYes)
		return &won
	}
	return nil
}

// checkH2HWin compares the backed outcome against the reported winning
// outcome names on normalized form, treating draw synonyms as a class.
func checkH2HWin(betOn string, winningOutcomes []string) bool {
	betNorm := match.NormalizeName(betOn)
	for _, w := range winningOutcomes {
		if match.NormalizeName(w) == betNorm {
			return true
		}
	}
	if market.DrawSynonyms[betNorm] {
		for _, w := range winningOutcomes {
			if market.DrawSynonyms[match.NormalizeName(w)] {
				return true
			}
		}
	}
	return false
}

// ParseScore extracts (home, away) goals from "2-1" or "2:1" style
// strings. ok is false when no two numeric parts are present.
func ParseScore(score string) (home, away int, ok bool) {
	if score == "" {
		return 0, 0, false
	}
	parts := strings.FieldsFunc(score, func(r rune) bool {
		return r == '-' || r == ':' || r == ' '
	})
	nums := parts[:0:0]
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err == nil {
			nums = append(nums, p)
		}
	}
	if len(nums) < 2 {
		return 0, 0, false
	}
	home, _ = strconv.Atoi(nums[0])
	away, _ = strconv.Atoi(nums[1])
	return home, away, true
}
