package pricing

import (
	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// Scenario is the repriced outcome of one instantaneous underlying move.
type Scenario struct {
	PctMove    float64 // underlying move, decimal (-0.05 = -5%)
	NewSpot    float64
	NewPremium float64
	PnLDollars float64
	PctOfRisk  float64 // P/L as a percentage of declared risk
}

// StressInput bundles the stress test inputs.
type StressInput struct {
	Spot         float64
	Strike       float64
	EntryPremium float64
	TimeYears    float64
	Rate         float64
	Vol          models.Fraction
	Kind         models.OptionKind
	Contracts    int
	RiskDollars  float64
	PctMoves     []float64
}

// StressTest reprices the option at each requested instantaneous percentage
// move in the underlying and reports dollar P/L and P/L as a percentage of
// the declared risk. Volatility is held constant across the move and no
// time passes; that is an explicit simplification, not a bug.
func StressTest(in StressInput) ([]Scenario, error) {
	if in.Spot <= 0 || in.Strike <= 0 {
		return nil, errors.ErrInvalidInputs
	}
	riskDollars := in.RiskDollars
	if riskDollars <= 0 {
		riskDollars = 1 // avoid division by zero in the risk percentage
	}
	contracts := in.Contracts
	if contracts < 1 {
		contracts = 1
	}

	scenarios := make([]Scenario, 0, len(in.PctMoves))
	for _, pct := range in.PctMoves {
		newSpot := in.Spot * (1 + pct)
		premium, err := Price(newSpot, in.Strike, in.TimeYears, in.Rate, in.Vol, in.Kind)
		if err != nil {
			return nil, err
		}
		pnl := (premium - in.EntryPremium) * 100 * float64(contracts)
		scenarios = append(scenarios, Scenario{
			PctMove:    pct,
			NewSpot:    newSpot,
			NewPremium: premium,
			PnLDollars: pnl,
			PctOfRisk:  pnl / riskDollars * 100,
		})
	}
	return scenarios, nil
}
