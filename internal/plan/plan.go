// Package plan sequences the position sizer, the stop/target calculator,
// and the go/no-go checklist into one immutable trade plan.
package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"options-copilot/internal/config"
	"options-copilot/internal/exits"
	"options-copilot/internal/logging"
	"options-copilot/internal/models"
	"options-copilot/internal/pricing"
	"options-copilot/internal/sizing"
)

// Orchestrator builds trade plans. It is stateless; every call produces a
// new TradePlan and nothing is mutated in place.
type Orchestrator struct {
	cfg    *config.Config
	sizer  *sizing.Sizer
	calc   *exits.Calculator
	logger zerolog.Logger
}

// NewOrchestrator creates a trade plan orchestrator.
func NewOrchestrator(cfg *config.Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		sizer:  sizing.NewSizer(cfg, logger),
		calc:   exits.NewCalculator(cfg, logger),
		logger: logger,
	}
}

// Request carries the inputs for one analysis.
type Request struct {
	Contract    models.OptionContract
	Context     models.MarketContext
	History     []models.TradeOutcome
	DrawdownPct float64
	Open        []sizing.OpenPosition
}

// Build produces a complete trade plan: size, stop/targets/exits, and the
// go/no-go decision. Every check runs independently so all violations are
// reported, not just the first.
func (o *Orchestrator) Build(req Request) models.TradePlan {
	contract := req.Contract
	ctx := req.Context

	var notices []string

	stop, _ := o.calc.InitialStop(contract.Premium, contract.IsSameDay())

	position := o.sizer.Size(sizing.Input{
		Ticker:       contract.Ticker,
		EntryPremium: contract.Premium,
		StopPremium:  stop,
		SetupScore:   ctx.SetupScore,
		IVRank:       ctx.IVRank,
		History:      req.History,
		DrawdownPct:  req.DrawdownPct,
		Open:         req.Open,
	})
	if position.Method == models.SizingFixedFallback {
		notices = append(notices, fmt.Sprintf("composite sizing unavailable (%s); fixed-fraction size used", position.FallbackReason))
	}
	if ctx.SetupScore == nil && o.cfg.Sizing.Method == "composite" {
		notices = append(notices, "no setup score; fixed-fraction size used")
	}

	stopTarget := o.calc.Plan(contract, ctx, position.Contracts, o.cfg.Backtest.RiskFreeRate)
	if stopTarget.TargetSource == "r_based" && len(ctx.ResistanceZones)+len(ctx.SupportZones) > 0 {
		notices = append(notices, "no technical zone implies a premium above entry; R-based targets used")
	}

	pop := o.probabilityOfProfit(contract, ctx)
	if pop == nil {
		notices = append(notices, "probability of profit unavailable (missing or invalid volatility)")
	}

	checks := o.runChecks(contract, position)
	decision := models.Pass
	var reasons []string
	for _, check := range checks {
		reasons = append(reasons, check.Reason)
		if !check.Passed {
			decision = models.Fail
		}
	}

	tradePlan := models.TradePlan{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Contract:   contract,
		Context:    ctx,
		Position:   position,
		StopTarget: stopTarget,
		PoP:        pop,
		Decision:   decision,
		Checks:     checks,
		Reasons:    reasons,
		Notices:    notices,
	}

	logging.LogPlan(o.logger, &tradePlan)

	return tradePlan
}

// probabilityOfProfit computes the risk-neutral PoP when a usable
// volatility is available; otherwise nil, reported as a notice.
func (o *Orchestrator) probabilityOfProfit(contract models.OptionContract, ctx models.MarketContext) *float64 {
	vol := ctx.ImpliedVol
	if vol == nil || !vol.Positive() {
		vol = ctx.RealizedVol
	}
	if vol == nil || !vol.Positive() || ctx.Spot <= 0 {
		return nil
	}

	timeYears := contract.TimeYears()
	if timeYears <= 0 {
		// Same-day contracts get a small positive time so d2 is defined.
		timeYears = 1.0 / 365.0 / 2
	}
	pop, err := pricing.ProbabilityOfProfit(ctx.Spot, contract.Strike, timeYears, o.cfg.Backtest.RiskFreeRate, *vol, contract.Kind)
	if err != nil {
		return nil
	}
	return &pop
}

// runChecks evaluates the go/no-go checklist. Checks never short-circuit.
func (o *Orchestrator) runChecks(contract models.OptionContract, position models.PositionSizeResult) []models.CheckResult {
	maxRiskPct := o.cfg.Account.MaxRiskPerTrade * 100
	minPremium := o.cfg.Sizing.MinPremium
	if contract.IsSameDay() {
		minPremium = o.cfg.ODE.MinPremium
	}
	maxPositionPct := o.cfg.Account.MaxPositionPct * 100

	checks := []models.CheckResult{
		{
			Name:   "risk_within_max",
			Passed: position.RiskPct <= maxRiskPct+1e-9,
			Reason: fmt.Sprintf("risk %.2f%% of capital vs %.2f%% max", position.RiskPct, maxRiskPct),
		},
		{
			Name:   "premium_above_minimum",
			Passed: contract.Premium >= minPremium,
			Reason: fmt.Sprintf("premium $%.2f vs $%.2f minimum", contract.Premium, minPremium),
		},
		{
			Name:   "contracts_at_least_one",
			Passed: position.Contracts >= 1,
			Reason: fmt.Sprintf("%d contracts", position.Contracts),
		},
		{
			Name:   "position_value_within_max",
			Passed: position.PositionPct <= maxPositionPct+1e-9,
			Reason: fmt.Sprintf("position %.2f%% of capital vs %.2f%% max", position.PositionPct, maxPositionPct),
		},
	}
	return checks
}
