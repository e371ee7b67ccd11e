// Package levels derives technical support/resistance zones and ATR from
// daily bar history, filling market-context fields the caller did not
// supply.
package levels

import (
	"math"
	"sort"

	"options-copilot/internal/models"
)

const (
	swingWindow      = 2     // bars on each side of a swing point
	clusterTolerance = 0.005 // zones within 0.5% merge
	maxZones         = 5
)

// Detect finds support and resistance zones from swing lows and highs,
// clustering nearby levels and scoring each zone by touch count and
// proximity to the latest close.
func Detect(bars []models.Bar) (supports, resistances []models.Zone) {
	if len(bars) < swingWindow*2+1 {
		return nil, nil
	}

	var lows, highs []float64
	for i := swingWindow; i < len(bars)-swingWindow; i++ {
		if isSwingLow(bars, i) {
			lows = append(lows, bars[i].Low)
		}
		if isSwingHigh(bars, i) {
			highs = append(highs, bars[i].High)
		}
	}

	spot := bars[len(bars)-1].Close
	supports = cluster(lows, spot)
	resistances = cluster(highs, spot)

	// Keep only zones on the correct side of the current price.
	supports = filterSide(supports, func(price float64) bool { return price < spot })
	resistances = filterSide(resistances, func(price float64) bool { return price > spot })
	return supports, resistances
}

// ATR returns the current Wilder-smoothed Average True Range.
func ATR(bars []models.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) <= period {
		return 0, false
	}

	trs := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		trs[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr, true
}

func isSwingLow(bars []models.Bar, i int) bool {
	for d := 1; d <= swingWindow; d++ {
		if bars[i].Low > bars[i-d].Low || bars[i].Low > bars[i+d].Low {
			return false
		}
	}
	return true
}

func isSwingHigh(bars []models.Bar, i int) bool {
	for d := 1; d <= swingWindow; d++ {
		if bars[i].High < bars[i-d].High || bars[i].High < bars[i+d].High {
			return false
		}
	}
	return true
}

// cluster merges nearby levels into zones and scores them. Strength blends
// touch count with distance from spot: heavily-tested zones near the
// current price matter most.
func cluster(prices []float64, spot float64) []models.Zone {
	if len(prices) == 0 || spot <= 0 {
		return nil
	}
	sort.Float64s(prices)

	var zones []models.Zone
	start := 0
	for i := 1; i <= len(prices); i++ {
		if i < len(prices) && prices[i]-prices[start] <= prices[start]*clusterTolerance {
			continue
		}
		group := prices[start:i]
		var sum float64
		for _, p := range group {
			sum += p
		}
		price := sum / float64(len(group))

		distance := math.Abs(price-spot) / spot
		strength := float64(len(group))*20 + (1-math.Min(distance*10, 1))*40
		if strength > 100 {
			strength = 100
		}
		zones = append(zones, models.Zone{
			Price:    price,
			Strength: strength,
			Touches:  len(group),
		})
		start = i
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].Strength > zones[j].Strength })
	if len(zones) > maxZones {
		zones = zones[:maxZones]
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Price < zones[j].Price })
	return zones
}

func filterSide(zones []models.Zone, keep func(float64) bool) []models.Zone {
	var out []models.Zone
	for _, z := range zones {
		if keep(z.Price) {
			out = append(out, z)
		}
	}
	return out
}
