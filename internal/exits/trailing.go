package exits

import (
	"fmt"

	"options-copilot/internal/models"
)

// TrailInput is the state fed into one trailing-stop update. PriorStop is
// the calculator's own previous output (or the initial stop on the first
// update); the updated stop can never be looser than it.
type TrailInput struct {
	EntryPremium   float64
	CurrentPremium float64
	InitialStop    float64
	PriorStop      float64
	Spot           float64
	ATR            *float64 // underlying ATR
	Delta          *float64
	SupportZones   []models.Zone
	Kind           models.OptionKind
}

// UpdateTrailingStop computes independent candidate stops from the
// technical, ATR, and breakeven sources, picks the highest-priority valid
// candidate (technical > ATR > breakeven), and clamps the result so the
// stop only ever tightens.
func (c *Calculator) UpdateTrailingStop(in TrailInput) models.TrailingStop {
	risk := in.EntryPremium - in.InitialStop
	profitR := 0.0
	if risk > 0 {
		profitR = (in.CurrentPremium - in.EntryPremium) / risk
	}

	result := models.TrailingStop{
		Price:   in.PriorStop,
		Source:  models.StopInitial,
		Reason:  "holding prior stop",
		ProfitR: profitR,
	}

	type candidate struct {
		price  float64
		source models.StopSource
		reason string
	}
	var candidates []candidate

	if price, reason, ok := c.technicalTrail(in); ok {
		candidates = append(candidates, candidate{price, models.StopTechnical, reason})
	}
	if price, reason, ok := c.atrTrail(in, profitR); ok {
		candidates = append(candidates, candidate{price, models.StopATR, reason})
	}
	if profitR >= c.cfg.Trailing.BreakevenTrigger {
		candidates = append(candidates, candidate{
			in.EntryPremium,
			models.StopBreakeven,
			fmt.Sprintf("profit %.1fR >= %.1fR trigger, stop to entry", profitR, c.cfg.Trailing.BreakevenTrigger),
		})
	}

	// Highest priority valid candidate wins; the list above is already in
	// priority order.
	for _, cand := range candidates {
		if cand.price >= in.CurrentPremium {
			continue
		}
		result.Price = cand.price
		result.Source = cand.source
		result.Reason = cand.reason
		result.Active = true
		break
	}

	// Monotonic tightening: never loosen past the prior stop.
	if result.Price < in.PriorStop {
		result.Price = in.PriorStop
		result.Reason = fmt.Sprintf("%s (held at prior stop %.2f)", result.Reason, in.PriorStop)
	}
	return result
}

// technicalTrail trails to the nearest qualifying support zone strictly
// between entry and current price, converted to premium terms via delta.
func (c *Calculator) technicalTrail(in TrailInput) (float64, string, bool) {
	if in.Spot <= 0 || in.Delta == nil || *in.Delta == 0 {
		return 0, "", false
	}
	delta := *in.Delta
	if delta < 0 {
		delta = -delta
	}

	best := 0.0
	bestZone := 0.0
	for _, z := range in.SupportZones {
		// Premium the option would carry with the underlying pulled back
		// to the zone.
		var move float64
		if in.Kind == models.Call {
			if z.Price >= in.Spot {
				continue
			}
			move = in.Spot - z.Price
		} else {
			if z.Price <= in.Spot {
				continue
			}
			move = z.Price - in.Spot
		}
		premium := in.CurrentPremium - delta*move
		floor := in.EntryPremium * (1 + c.cfg.Trailing.MinDistancePct/100)
		if premium <= floor || premium >= in.CurrentPremium {
			continue
		}
		if premium > best {
			best = premium
			bestZone = z.Price
		}
	}
	if best == 0 {
		return 0, "", false
	}
	return best, fmt.Sprintf("trailing to zone %.2f", bestZone), true
}

// atrTrail trails the stop by a multiple of ATR converted to premium
// space; the multiple widens with the profit band so winners get room.
func (c *Calculator) atrTrail(in TrailInput, profitR float64) (float64, string, bool) {
	if in.ATR == nil || *in.ATR <= 0 || in.Delta == nil || *in.Delta == 0 {
		return 0, "", false
	}
	delta := *in.Delta
	if delta < 0 {
		delta = -delta
	}

	var mult float64
	var band string
	switch {
	case profitR < 2:
		mult, band = c.cfg.Trailing.ATRInitialMult, "initial"
	case profitR < 4:
		mult, band = c.cfg.Trailing.ATRMidMult, "mid"
	default:
		mult, band = c.cfg.Trailing.ATRHighMult, "high"
	}

	atrPremium := delta * *in.ATR
	price := in.CurrentPremium - mult*atrPremium
	if price <= 0 {
		return 0, "", false
	}
	return price, fmt.Sprintf("%.1fx ATR trail (%s band)", mult, band), true
}
