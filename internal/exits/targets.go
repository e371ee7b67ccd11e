package exits

import (
	"fmt"
	"sort"

	"options-copilot/internal/models"
	"options-copilot/internal/pricing"
)

// TargetLevel is one profit-taking level, in premium terms.
type TargetLevel struct {
	Premium    float64
	Underlying float64 // 0 for R-based levels
	RMultiple  float64
	Reason     string
}

// TargetSet holds the ordered profit targets and how they were derived.
type TargetSet struct {
	Source string // "technical" or "r_based"
	Levels []TargetLevel
}

// Targets derives profit targets. Technical zones are preferred: zone
// underlying levels are repriced into premiums and only zones implying a
// premium strictly above entry qualify. Without qualifying zones the
// targets fall back to fixed R-multiples of the premium risk.
func (c *Calculator) Targets(contract models.OptionContract, ctx models.MarketContext, stop, rate float64) TargetSet {
	if levels := c.technicalTargets(contract, ctx, rate); len(levels) > 0 {
		return TargetSet{Source: "technical", Levels: levels}
	}
	return TargetSet{Source: "r_based", Levels: c.rBasedTargets(contract, stop)}
}

// technicalTargets walks the zone list in the favorable direction: calls
// climb resistance above spot, puts descend support below spot.
func (c *Calculator) technicalTargets(contract models.OptionContract, ctx models.MarketContext, rate float64) []TargetLevel {
	if ctx.Spot <= 0 {
		return nil
	}

	var zones []models.Zone
	if contract.Kind == models.Call {
		for _, z := range ctx.ResistanceZones {
			if z.Price > ctx.Spot {
				zones = append(zones, z)
			}
		}
		sort.Slice(zones, func(i, j int) bool { return zones[i].Price < zones[j].Price })
	} else {
		for _, z := range ctx.SupportZones {
			if z.Price < ctx.Spot && z.Price > 0 {
				zones = append(zones, z)
			}
		}
		sort.Slice(zones, func(i, j int) bool { return zones[i].Price > zones[j].Price })
	}

	var levels []TargetLevel
	for _, z := range zones {
		premium, ok := c.repriceAt(contract, ctx, z.Price, rate)
		if !ok || premium <= contract.Premium {
			continue
		}
		levels = append(levels, TargetLevel{
			Premium:    premium,
			Underlying: z.Price,
			Reason:     fmt.Sprintf("zone %.2f (strength %.0f, %d touches)", z.Price, z.Strength, z.Touches),
		})
		if len(levels) == 3 {
			break
		}
	}
	return levels
}

// repriceAt estimates the option premium with the underlying at level.
// With implied volatility available the pricing kernel is used; otherwise
// a delta-scaled approximation. Returns false when neither is possible.
func (c *Calculator) repriceAt(contract models.OptionContract, ctx models.MarketContext, level, rate float64) (float64, bool) {
	if ctx.ImpliedVol != nil && ctx.ImpliedVol.Positive() {
		premium, err := pricing.Price(level, contract.Strike, contract.TimeYears(), rate, *ctx.ImpliedVol, contract.Kind)
		if err == nil {
			return premium, true
		}
	}

	if ctx.Greeks != nil && ctx.Greeks.Delta != 0 {
		move := level - ctx.Spot
		if contract.Kind == models.Put {
			move = ctx.Spot - level
		}
		delta := ctx.Greeks.Delta
		if delta < 0 {
			delta = -delta
		}
		est := contract.Premium + delta*move
		if est > 0 {
			return est, true
		}
	}
	return 0, false
}

// rBasedTargets builds the fallback R-multiple ladder from the premium
// risk to the stop.
func (c *Calculator) rBasedTargets(contract models.OptionContract, stop float64) []TargetLevel {
	risk := contract.Premium - stop
	if risk <= 0 {
		return nil
	}

	primaryR := c.profitTargetR(contract.IsSameDay())
	runnerR := c.cfg.Targets.MaxRunnerTargetR

	levels := []TargetLevel{{
		Premium:   contract.Premium + primaryR*risk,
		RMultiple: primaryR,
		Reason:    fmt.Sprintf("%.1fR profit target", primaryR),
	}}
	if runnerR > primaryR {
		midR := c.cfg.Targets.RunnerActivationR
		if midR > primaryR && midR < runnerR {
			levels = append(levels, TargetLevel{
				Premium:   contract.Premium + midR*risk,
				RMultiple: midR,
				Reason:    fmt.Sprintf("%.1fR scale-out", midR),
			})
		}
		levels = append(levels, TargetLevel{
			Premium:   contract.Premium + runnerR*risk,
			RMultiple: runnerR,
			Reason:    fmt.Sprintf("%.1fR runner", runnerR),
		})
	}
	return levels
}
