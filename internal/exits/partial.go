package exits

import (
	"fmt"

	"options-copilot/internal/models"
)

// ExitLadder allocates contracts across the target levels using the
// configured scaling method. The last level absorbs any rounding
// remainder so allocated contracts always sum exactly to the total.
func (c *Calculator) ExitLadder(totalContracts int, entry, stop float64, targets TargetSet) []models.ExitLevel {
	if totalContracts < 1 || len(targets.Levels) == 0 {
		return nil
	}

	var weights []float64
	switch c.cfg.PartialExits.ScalingMethod {
	case "equal_thirds":
		weights = []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	default: // technical_weighted and r_based share the configured split
		weights = []float64{
			c.cfg.PartialExits.T1Pct,
			c.cfg.PartialExits.T2Pct,
			c.cfg.PartialExits.RunnerPct,
		}
	}

	levels := targets.Levels
	if len(levels) > len(weights) {
		levels = levels[:len(weights)]
	}
	weights = weights[:len(levels)]

	// If fewer levels than weights, fold the unused weight into the last
	// level so the full position is still allocated.
	risk := entry - stop
	ladder := make([]models.ExitLevel, 0, len(levels))
	allocated := 0
	for i, level := range levels {
		var n int
		if i == len(levels)-1 {
			n = totalContracts - allocated
		} else {
			n = int(float64(totalContracts) * weights[i])
		}
		allocated += n
		if n == 0 {
			continue
		}

		r := level.RMultiple
		if r == 0 && risk > 0 {
			r = (level.Premium - entry) / risk
		}
		ladder = append(ladder, models.ExitLevel{
			Level:     len(ladder) + 1,
			Price:     level.Premium,
			Contracts: n,
			RMultiple: r,
			Trigger:   fmt.Sprintf("premium >= %.2f", level.Premium),
			Reason:    level.Reason,
		})
	}
	return ladder
}
