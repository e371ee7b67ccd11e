package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-copilot/internal/levels"
	"options-copilot/internal/models"
	"options-copilot/internal/plan"
	"options-copilot/internal/pricing"
	"options-copilot/internal/report"
	"options-copilot/internal/sizing"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		spot       float64
		impliedVol float64
		realized   float64
		ivRank     float64
		atr        float64
		score      float64
		delta      float64
		supports   []float64
		resists    []float64
		record     bool
		stress     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze \"ALERT TEXT\"",
		Short: "Turn a trade alert into a sized, stop-managed plan",
		Example: `  copilot analyze "AAPL 185C 3/15 @ 2.50" --spot 182.40 --iv 28 --iv-rank 45 --score 85
  copilot analyze "SPY 500C 0DTE @ 1.20" --spot 498.75 --iv 14 --stress
  copilot analyze "TSLA 240 PUT 14DTE @ 3.10" --spot 246 --iv 52 --support 238 --support 232`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			contract, err := app.Parser.Parse(args[0])
			if err != nil {
				return err
			}

			ctx := buildContext(cmd, spot, impliedVol, realized, ivRank, atr, score, delta, supports, resists)
			app.enrichFromHistory(cmd, contract.Ticker, &ctx)

			history, err := app.Journal.History()
			if err != nil {
				app.Logger.Warn().Err(err).Msg("Journal history unavailable, sizing without it")
			}
			open, err := app.Journal.OpenRisk()
			if err != nil {
				app.Logger.Warn().Err(err).Msg("Open positions unavailable, skipping correlation cap")
			}
			drawdown, err := app.Journal.DrawdownPct(app.Config.Account.TotalCapital)
			if err != nil {
				app.Logger.Warn().Err(err).Msg("Drawdown unavailable, assuming none")
			}

			sizerOpen := make([]sizing.OpenPosition, 0, len(open))
			for _, p := range open {
				sizerOpen = append(sizerOpen, sizing.OpenPosition{Ticker: p.Ticker, RiskDollars: p.RiskDollars})
			}

			tradePlan := app.Orchestrator.Build(plan.Request{
				Contract:    contract,
				Context:     ctx,
				History:     history,
				DrawdownPct: drawdown,
				Open:        sizerOpen,
			})

			rec := app.Advisor.Recommend(cmd.Context(), &tradePlan)

			var scenarios []pricing.Scenario
			if stress {
				scenarios = app.runStress(&tradePlan)
			}

			if record && tradePlan.Decision == models.Pass {
				if err := app.Journal.Record(&tradePlan); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to journal the plan")
				}
			}

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"plan":           tradePlan,
					"recommendation": rec,
					"stress":         scenarios,
				})
			}

			report.Plan(out.Writer(), &tradePlan, &rec)
			if len(scenarios) > 0 {
				renderStress(out, scenarios)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying spot price")
	cmd.Flags().Float64Var(&impliedVol, "iv", 0, "implied volatility (decimal or percent)")
	cmd.Flags().Float64Var(&realized, "rv", 0, "realized volatility (decimal or percent)")
	cmd.Flags().Float64Var(&ivRank, "iv-rank", -1, "IV rank 0-100")
	cmd.Flags().Float64Var(&atr, "atr", 0, "average true range of the underlying")
	cmd.Flags().Float64Var(&score, "score", -1, "setup quality score 0-100")
	cmd.Flags().Float64Var(&delta, "delta", 0, "option delta")
	cmd.Flags().Float64SliceVar(&supports, "support", nil, "support zone price (repeatable)")
	cmd.Flags().Float64SliceVar(&resists, "resistance", nil, "resistance zone price (repeatable)")
	cmd.Flags().BoolVar(&record, "record", false, "journal the plan when it passes")
	cmd.Flags().BoolVar(&stress, "stress", false, "include an instant-reprice stress test")

	return cmd
}

// buildContext assembles the market context from flags. Unset flags become
// absent fields; volatility normalization happens exactly once, here.
func buildContext(cmd *cobra.Command, spot, iv, rv, ivRank, atr, score, delta float64, supports, resists []float64) models.MarketContext {
	ctx := models.MarketContext{Spot: spot}

	if cmd.Flags().Changed("iv") && iv > 0 {
		f := models.NewFraction(iv)
		ctx.ImpliedVol = &f
	}
	if cmd.Flags().Changed("rv") && rv > 0 {
		f := models.NewFraction(rv)
		ctx.RealizedVol = &f
	}
	if ivRank >= 0 {
		ctx.IVRank = &ivRank
	}
	if cmd.Flags().Changed("atr") && atr > 0 {
		ctx.ATR = &atr
	}
	if score >= 0 {
		ctx.SetupScore = &score
	}
	if cmd.Flags().Changed("delta") && delta != 0 {
		ctx.Greeks = &models.Greeks{Delta: delta}
	}
	for _, price := range supports {
		ctx.SupportZones = append(ctx.SupportZones, models.Zone{Price: price, Strength: 50, Touches: 1})
	}
	for _, price := range resists {
		ctx.ResistanceZones = append(ctx.ResistanceZones, models.Zone{Price: price, Strength: 50, Touches: 1})
	}
	return ctx
}

// enrichFromHistory fills zones and ATR from cached daily bars when the
// caller did not supply them. Missing history is not an error; the plan
// simply degrades to R-based targets.
func (app *App) enrichFromHistory(cmd *cobra.Command, ticker string, ctx *models.MarketContext) {
	if ctx.Spot <= 0 {
		return
	}
	needZones := len(ctx.SupportZones) == 0 && len(ctx.ResistanceZones) == 0
	if !needZones && ctx.ATR != nil {
		return
	}

	to := time.Now().UTC()
	bars, err := app.MarketData.DailyBars(cmd.Context(), ticker, to.AddDate(-1, 0, 0), to)
	if err != nil || len(bars) == 0 {
		app.Logger.Debug().Str("ticker", ticker).Err(err).Msg("No history to derive zones or ATR from")
		return
	}

	if needZones {
		ctx.SupportZones, ctx.ResistanceZones = levels.Detect(bars)
	}
	if ctx.ATR == nil {
		if atr, ok := levels.ATR(bars, app.Config.Stops.ATR.Period); ok {
			ctx.ATR = &atr
		}
	}
}

// runStress reprices the plan across standard percentage moves.
func (app *App) runStress(tradePlan *models.TradePlan) []pricing.Scenario {
	ctx := tradePlan.Context
	vol := ctx.ImpliedVol
	if vol == nil || !vol.Positive() {
		vol = ctx.RealizedVol
	}
	if vol == nil || !vol.Positive() || ctx.Spot <= 0 {
		return nil
	}

	scenarios, err := pricing.StressTest(pricing.StressInput{
		Spot:         ctx.Spot,
		Strike:       tradePlan.Contract.Strike,
		EntryPremium: tradePlan.Contract.Premium,
		TimeYears:    tradePlan.Contract.TimeYears(),
		Rate:         app.Config.Backtest.RiskFreeRate,
		Vol:          *vol,
		Kind:         tradePlan.Contract.Kind,
		Contracts:    tradePlan.Position.Contracts,
		RiskDollars:  tradePlan.Position.RiskDollars,
		PctMoves:     []float64{-0.05, -0.02, -0.01, 0.01, 0.02, 0.05},
	})
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Stress test unavailable")
		return nil
	}
	return scenarios
}

func renderStress(out *Output, scenarios []pricing.Scenario) {
	fmt.Fprintf(out.Writer(), "\nStress (instant move, constant vol)\n%s\n", strings.Repeat("-", 60))
	for _, s := range scenarios {
		fmt.Fprintf(out.Writer(), "%+5.1f%%  spot %8.2f  premium %7.2f  P/L %9.0f  (%.0f%% of risk)\n",
			s.PctMove*100, s.NewSpot, s.NewPremium, s.PnLDollars, s.PctOfRisk)
	}
}
