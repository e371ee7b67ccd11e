package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"options-copilot/internal/advisor"
	"options-copilot/internal/journal"
	"options-copilot/internal/models"
)

func init() {
	color.NoColor = true
}

func renderedPlan() *models.TradePlan {
	pop := 0.58
	return &models.TradePlan{
		ID: "abcd1234-plan",
		Contract: models.OptionContract{
			Ticker: "AAPL", Strike: 185, Kind: models.Call, DTE: 10, Premium: 2.50,
		},
		Position: models.PositionSizeResult{
			Contracts: 16, RiskDollars: 2000, RiskPct: 2.0,
			PositionValue: 4000, PositionPct: 4.0, Method: models.SizingComposite,
			Adjustments: []models.Adjustment{{Name: "setup_quality", Multiplier: 1.25, Detail: "setup score 85"}},
		},
		StopTarget: models.StopTargetPlan{
			StopLoss: 1.25, StopRiskPct: 50, Target: 3.75, TargetR: 2.0, TargetSource: "r_based",
			ExitLadder: []models.ExitLevel{{Level: 1, Price: 3.75, Contracts: 16, RMultiple: 2.0}},
		},
		PoP:      &pop,
		Decision: models.Pass,
		Checks: []models.CheckResult{
			{Name: "risk_within_max", Passed: true, Reason: "risk 2.00% vs 5.00% max"},
		},
		Notices: []string{"no setup score; fixed-fraction size used"},
	}
}

func TestPlanRendering(t *testing.T) {
	var buf bytes.Buffer
	rec := &advisor.Recommendation{Text: "Sized sensibly.", Source: "rules"}

	Plan(&buf, renderedPlan(), rec)

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "16 contracts")
	assert.Contains(t, out, "setup_quality")
	assert.Contains(t, out, "$3.75")
	assert.Contains(t, out, "PoP       58%")
	assert.Contains(t, out, "note:")
	assert.Contains(t, out, "Recommendation")
}

func TestBacktestRendering(t *testing.T) {
	var buf bytes.Buffer
	Backtest(&buf, &models.BacktestResult{
		Ticker: "SPY", NTrades: 20, Wins: 12, Losses: 8, WinRatePct: 60,
		AvgWinDollars: 150, AvgLossDollars: -80, Expectancy: 58,
		TotalPnLDollars: 1160, MaxDrawdown: 240, SharpeAnnual: 1.4,
	})

	out := buf.String()
	assert.Contains(t, out, "SPY")
	assert.Contains(t, out, "20 (12 wins / 8 losses)")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "realized vol")
}

func TestBacktestRenderingEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	Backtest(&buf, &models.BacktestResult{Ticker: "SPY"})

	assert.Contains(t, buf.String(), "No qualifying setups")
}

func TestJournalRendering(t *testing.T) {
	var buf bytes.Buffer
	entries := []journal.Entry{
		{ID: "abcd1234efgh", Ticker: "AAPL", Kind: "CALL", Strike: 185, EntryPremium: 2.50, Contracts: 16, StopPremium: 1.25},
		{ID: "wxyz", Ticker: "SPY", Kind: "PUT", Strike: 500, EntryPremium: 1.80, Contracts: 10, StopPremium: 0.90,
			ExitPremium: 0.90, ExitReason: "stop", PnL: -900},
	}

	Journal(&buf, entries)

	out := buf.String()
	assert.Contains(t, out, "abcd1234")
	assert.NotContains(t, out, "abcd1234efgh")
	assert.Contains(t, out, "stop")
	assert.Contains(t, out, "-$900.00")

	buf.Reset()
	Journal(&buf, nil)
	assert.Contains(t, buf.String(), "Journal is empty")
}

func TestSummaryRendering(t *testing.T) {
	var buf bytes.Buffer
	entries := []journal.Entry{
		{ID: "a", ExitReason: "target", PnL: 2000},
		{ID: "b", ExitReason: "stop", PnL: -900},
		{ID: "c"},
	}

	Summary(&buf, entries)

	out := buf.String()
	assert.Contains(t, out, "3 (2 closed, 1 open)")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "+$1100.00")
}
