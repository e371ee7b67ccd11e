package models

import "time"

// SizingMethod identifies which sizing policy produced a result.
type SizingMethod string

const (
	SizingFixed         SizingMethod = "fixed"
	SizingComposite     SizingMethod = "composite"
	SizingFixedFallback SizingMethod = "fixed_fallback"
)

// Adjustment is one multiplicative sizing factor, reported separately so
// every downward adjustment is auditable.
type Adjustment struct {
	Name       string
	Multiplier float64
	Detail     string
}

// PositionSizeResult is the sizer output.
type PositionSizeResult struct {
	Contracts      int
	RiskDollars    float64
	RiskPct        float64 // percentage of capital, 0-100
	PositionValue  float64
	PositionPct    float64 // percentage of capital, 0-100
	Method         SizingMethod
	BaseRiskPct    float64
	Adjustments    []Adjustment
	Reasoning      string
	FallbackReason string // set when Method == SizingFixedFallback
}

// StopSource identifies which rule produced a stop level.
type StopSource string

const (
	StopInitial   StopSource = "initial"
	StopATR       StopSource = "atr"
	StopTechnical StopSource = "technical"
	StopBreakeven StopSource = "breakeven"
)

// ExitLevel is one rung of the partial-exit ladder.
type ExitLevel struct {
	Level     int
	Price     float64
	Contracts int
	RMultiple float64
	Trigger   string
	Reason    string
}

// TrailingStop is the current trailing-stop policy state.
type TrailingStop struct {
	Price   float64
	Source  StopSource
	Reason  string
	Active  bool
	ProfitR float64
}

// StopTargetPlan holds stop loss, profit targets, the partial-exit ladder,
// and the trailing-stop policy for one trade.
type StopTargetPlan struct {
	StopLoss      float64
	StopRiskPct   float64 // risk from entry to stop, as percent of premium
	Target        float64
	TargetR       float64
	TargetSource  string // "technical" or "r_based"
	RunnerTarget  float64
	RunnerTargetR float64
	ExitLadder    []ExitLevel
	ScalingMethod string
	Trailing      TrailingStop
	MaxLossDollar float64
	MaxGainDollar float64
}

// Decision is the deterministic go/no-go outcome.
type Decision string

const (
	Pass Decision = "PASS"
	Fail Decision = "FAIL"
)

// CheckResult is one rule of the go/no-go checklist. All checks run
// independently so every violated rule is reported.
type CheckResult struct {
	Name   string
	Passed bool
	Reason string
}

// TradePlan is the immutable aggregate produced by one analysis request.
// A re-sizing pass produces a new TradePlan, never mutates this one.
type TradePlan struct {
	ID         string
	CreatedAt  time.Time
	Contract   OptionContract
	Context    MarketContext
	Position   PositionSizeResult
	StopTarget StopTargetPlan
	PoP        *float64 // probability of profit, absent when unpriceable
	Decision   Decision
	Checks     []CheckResult
	Reasons    []string // ordered decision reasons
	Notices    []string // informational degradation notices, never errors
}
