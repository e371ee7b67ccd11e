// Package backtest scans historical price series for setups matching the
// live rule thresholds and walk-forward-simulates each trade with the
// pricing kernel.
package backtest

import (
	"math"

	"options-copilot/internal/models"
)

const (
	rvWindow           = 21  // trading days of returns per realized-vol sample
	rankWindow         = 252 // trailing window for the realized-vol rank
	tradingDaysPerYear = 252
)

// atrSeries computes the Wilder-smoothed Average True Range aligned to the
// input bars. Entries before the warm-up period are NaN.
func atrSeries(bars []models.Bar, period int) []float64 {
	atrs := make([]float64, len(bars))
	for i := range atrs {
		atrs[i] = math.NaN()
	}
	if period <= 0 || len(bars) <= period {
		return atrs
	}

	trs := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		trs[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	var sum float64
	for i := 1; i <= period; i++ {
		sum += trs[i]
	}
	atrs[period] = sum / float64(period)
	for i := period + 1; i < len(bars); i++ {
		atrs[i] = (atrs[i-1]*float64(period-1) + trs[i]) / float64(period)
	}
	return atrs
}

// realizedVolSeries computes the annualized realized volatility of daily
// log returns over a rolling window, aligned to the input bars. Entries
// before the warm-up period are NaN.
func realizedVolSeries(bars []models.Bar, window int) []float64 {
	vols := make([]float64, len(bars))
	for i := range vols {
		vols[i] = math.NaN()
	}
	if window < 2 || len(bars) <= window {
		return vols
	}

	returns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close <= 0 || bars[i].Close <= 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = math.Log(bars[i].Close / bars[i-1].Close)
	}

	for i := window; i < len(bars); i++ {
		sample := returns[i-window+1 : i+1]
		std, ok := stddev(sample)
		if !ok {
			continue
		}
		vols[i] = std * math.Sqrt(tradingDaysPerYear)
	}
	return vols
}

// rvRank returns the percentile (0-100) of the realized vol at index i
// within its trailing window, or NaN when too little of the window is
// populated.
func rvRank(vols []float64, i, window int) float64 {
	current := vols[i]
	if math.IsNaN(current) {
		return math.NaN()
	}

	start := i - window
	if start < 0 {
		start = 0
	}

	var below, total int
	for j := start; j <= i; j++ {
		if math.IsNaN(vols[j]) {
			continue
		}
		total++
		if vols[j] <= current {
			below++
		}
	}
	if total < window/4 {
		return math.NaN()
	}
	return float64(below) / float64(total) * 100
}

func stddev(sample []float64) (float64, bool) {
	var sum float64
	n := 0
	for _, v := range sample {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
		n++
	}
	if n < 2 {
		return 0, false
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range sample {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(n-1)), true
}
