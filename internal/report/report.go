// Package report renders trade plans, backtest results, and journal
// summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"options-copilot/internal/advisor"
	"options-copilot/internal/journal"
	"options-copilot/internal/models"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// Plan renders a trade plan with its sizing breakdown, exit ladder, and
// checklist.
func Plan(w io.Writer, plan *models.TradePlan, rec *advisor.Recommendation) {
	c := plan.Contract
	fmt.Fprintf(w, "\n%s  %s %s $%.2f  %dDTE  @ $%.2f\n",
		bold(c.Ticker), decisionBadge(plan.Decision), c.Kind, c.Strike, c.DTE, c.Premium)
	fmt.Fprintln(w, strings.Repeat("-", 60))

	p := plan.Position
	fmt.Fprintf(w, "Size      %d contracts ($%.0f position, %.1f%% of capital)\n",
		p.Contracts, p.PositionValue, p.PositionPct)
	fmt.Fprintf(w, "Risk      $%.0f (%.2f%% of capital) via %s sizing\n",
		p.RiskDollars, p.RiskPct, p.Method)
	for _, adj := range p.Adjustments {
		fmt.Fprintf(w, "          %s %s\n", faint(fmt.Sprintf("%-18s %.2fx", adj.Name, adj.Multiplier)), faint(adj.Detail))
	}
	if p.FallbackReason != "" {
		fmt.Fprintf(w, "          %s\n", yellow("fallback: "+p.FallbackReason))
	}

	st := plan.StopTarget
	fmt.Fprintf(w, "Stop      $%.2f (-%.0f%% premium, max loss $%.0f)\n",
		st.StopLoss, st.StopRiskPct, st.MaxLossDollar)
	fmt.Fprintf(w, "Target    $%.2f (%.1fR, %s)\n", st.Target, st.TargetR, st.TargetSource)
	if st.RunnerTarget > st.Target {
		fmt.Fprintf(w, "Runner    $%.2f (%.1fR)\n", st.RunnerTarget, st.RunnerTargetR)
	}
	for _, level := range st.ExitLadder {
		fmt.Fprintf(w, "  T%d      %d @ $%.2f (%.1fR) %s\n",
			level.Level, level.Contracts, level.Price, level.RMultiple, faint(level.Reason))
	}

	if plan.PoP != nil {
		fmt.Fprintf(w, "PoP       %.0f%%\n", *plan.PoP*100)
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, check := range plan.Checks {
		mark := green("PASS")
		if !check.Passed {
			mark = red("FAIL")
		}
		fmt.Fprintf(w, "[%s] %-26s %s\n", mark, check.Name, check.Reason)
	}
	for _, notice := range plan.Notices {
		fmt.Fprintf(w, "%s %s\n", yellow("note:"), notice)
	}

	if rec != nil {
		fmt.Fprintf(w, "\n%s (%s)\n%s\n", bold("Recommendation"), rec.Source, rec.Text)
	}
}

// Backtest renders the aggregate statistics of one backtest run. The
// realized-vol proxy caveat is always shown: the simulation has no true
// historical implied volatility.
func Backtest(w io.Writer, result *models.BacktestResult) {
	fmt.Fprintf(w, "\n%s backtest\n", bold(result.Ticker))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	if result.NTrades == 0 {
		fmt.Fprintln(w, "No qualifying setups in the available history.")
		return
	}

	fmt.Fprintf(w, "Trades      %d (%d wins / %d losses)\n", result.NTrades, result.Wins, result.Losses)
	fmt.Fprintf(w, "Win rate    %.1f%%\n", result.WinRatePct)
	fmt.Fprintf(w, "Avg win     $%.2f   Avg loss  $%.2f\n", result.AvgWinDollars, result.AvgLossDollars)
	fmt.Fprintf(w, "Expectancy  %s\n", signedDollars(result.Expectancy))
	fmt.Fprintf(w, "Total P/L   %s\n", signedDollars(result.TotalPnLDollars))
	fmt.Fprintf(w, "Max DD      $%.2f\n", result.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe      %.2f (annualized)\n", result.SharpeAnnual)
	fmt.Fprintf(w, "%s\n", faint("Entry vol is trailing realized vol, a proxy for historical IV; treat results as approximate."))
}

// Journal renders the trade log as a table.
func Journal(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Journal is empty.")
		return
	}

	fmt.Fprintf(w, "%-10s %-6s %-5s %8s %8s %5s %9s %7s %10s\n",
		"ID", "TICKER", "KIND", "STRIKE", "ENTRY", "QTY", "STOP", "EXIT", "P/L")
	for _, e := range entries {
		pnl := "-"
		if e.Closed() {
			pnl = signedDollars(e.PnL)
		}
		fmt.Fprintf(w, "%-10s %-6s %-5s %8.2f %8.2f %5d %9.2f %7s %10s\n",
			shortID(e.ID), e.Ticker, e.Kind, e.Strike, e.EntryPremium, e.Contracts,
			e.StopPremium, orDash(e.ExitReason), pnl)
	}
}

// Summary renders aggregate journal statistics.
func Summary(w io.Writer, entries []journal.Entry) {
	var closed, wins int
	var total float64
	for _, e := range entries {
		if !e.Closed() {
			continue
		}
		closed++
		total += e.PnL
		if e.PnL > 0 {
			wins++
		}
	}

	fmt.Fprintf(w, "Entries   %d (%d closed, %d open)\n", len(entries), closed, len(entries)-closed)
	if closed > 0 {
		fmt.Fprintf(w, "Win rate  %.1f%%\n", float64(wins)/float64(closed)*100)
		fmt.Fprintf(w, "Total P/L %s\n", signedDollars(total))
	}
}

func decisionBadge(d models.Decision) string {
	if d == models.Pass {
		return green("PASS")
	}
	return red("FAIL")
}

func signedDollars(v float64) string {
	if v >= 0 {
		return green(fmt.Sprintf("+$%.2f", v))
	}
	return red(fmt.Sprintf("-$%.2f", -v))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
