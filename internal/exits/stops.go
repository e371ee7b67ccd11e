// Package exits derives stop losses, profit targets, partial-exit ladders,
// and trailing-stop policy from premium, ATR, and technical zones.
package exits

import (
	"github.com/rs/zerolog"

	"options-copilot/internal/config"
	"options-copilot/internal/models"
)

// Calculator computes stop/target/exit plans. All methods are pure given
// the injected configuration.
type Calculator struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewCalculator creates a stop/target/exit calculator.
func NewCalculator(cfg *config.Config, logger zerolog.Logger) *Calculator {
	return &Calculator{cfg: cfg, logger: logger}
}

// InitialStop selects the more conservative of the percentage-of-premium
// stop and the fixed-dollar-loss cap. Tighter means closer to entry, so
// for a long option the higher of the two premium levels wins. Same-day
// trades use the tighter 0DTE percentage.
func (c *Calculator) InitialStop(entryPremium float64, sameDay bool) (float64, float64) {
	stopPct := c.cfg.Stops.DefaultPct
	if sameDay {
		stopPct = c.cfg.ODE.StopPct
	}

	pctStop := entryPremium * (1 - stopPct)
	dollarStop := entryPremium - c.cfg.Stops.MaxLossPerContract/100

	stop := pctStop
	if dollarStop > stop {
		stop = dollarStop
	}
	if stop < 0 {
		stop = 0
	}

	riskPct := 0.0
	if entryPremium > 0 {
		riskPct = (entryPremium - stop) / entryPremium * 100
	}
	return stop, riskPct
}

// Plan assembles the full stop/target/exit plan for one trade.
func (c *Calculator) Plan(contract models.OptionContract, ctx models.MarketContext, contracts int, rate float64) models.StopTargetPlan {
	stop, stopRiskPct := c.InitialStop(contract.Premium, contract.IsSameDay())

	targets := c.Targets(contract, ctx, stop, rate)

	plan := models.StopTargetPlan{
		StopLoss:      stop,
		StopRiskPct:   stopRiskPct,
		TargetSource:  targets.Source,
		ScalingMethod: c.cfg.PartialExits.ScalingMethod,
		Trailing: models.TrailingStop{
			Price:  stop,
			Source: models.StopInitial,
			Reason: "initial stop",
		},
	}

	risk := contract.Premium - stop
	if len(targets.Levels) > 0 {
		plan.Target = targets.Levels[0].Premium
		if risk > 0 {
			plan.TargetR = (plan.Target - contract.Premium) / risk
		}
	}
	if len(targets.Levels) > 1 {
		plan.RunnerTarget = targets.Levels[len(targets.Levels)-1].Premium
		if risk > 0 {
			plan.RunnerTargetR = (plan.RunnerTarget - contract.Premium) / risk
		}
	}

	// The r_based scaling policy ladders on R tranches even when the
	// primary target came from a technical zone.
	ladderTargets := targets
	if c.cfg.PartialExits.ScalingMethod == "r_based" && targets.Source != "r_based" {
		ladderTargets = TargetSet{Source: "r_based", Levels: c.rBasedTargets(contract, stop)}
	}
	plan.ExitLadder = c.ExitLadder(contracts, contract.Premium, stop, ladderTargets)

	plan.MaxLossDollar = risk * 100 * float64(contracts)
	if plan.Target > 0 {
		plan.MaxGainDollar = (plan.Target - contract.Premium) * 100 * float64(contracts)
	}

	c.logger.Debug().
		Str("ticker", contract.Ticker).
		Float64("stop", plan.StopLoss).
		Float64("target", plan.Target).
		Str("target_source", plan.TargetSource).
		Int("ladder_levels", len(plan.ExitLadder)).
		Msg("Stop/target plan built")

	return plan
}

// profitTargetR returns the configured primary target R, with the 0DTE
// override applied for same-day trades.
func (c *Calculator) profitTargetR(sameDay bool) float64 {
	if sameDay {
		return c.cfg.ODE.ProfitTargetR
	}
	return c.cfg.Targets.ProfitTargetR
}
