// Package pricing implements the Black-Scholes option pricing kernel:
// theoretical premium, probability of profit, implied-volatility solving,
// and instant-reprice stress testing. All functions are pure.
package pricing

import (
	"math"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// d1d2 computes the Black-Scholes d1 and d2 terms. Inputs must be positive.
func d1d2(spot, strike, timeYears, rate, vol float64) (float64, float64) {
	sqrtT := math.Sqrt(timeYears)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*timeYears) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	return d1, d2
}

// Intrinsic returns the option's intrinsic value at the given spot.
func Intrinsic(spot, strike float64, kind models.OptionKind) float64 {
	if kind == models.Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}

// Price returns the Black-Scholes theoretical premium. At timeYears <= 0 it
// returns intrinsic value rather than invoking the distribution formula;
// this is the explicit zero-time-value boundary condition.
func Price(spot, strike, timeYears, rate float64, vol models.Fraction, kind models.OptionKind) (float64, error) {
	if spot <= 0 || strike <= 0 {
		return 0, errors.ErrInvalidInputs
	}
	if timeYears <= 0 {
		return Intrinsic(spot, strike, kind), nil
	}
	if !vol.Positive() {
		return 0, errors.ErrInvalidInputs
	}

	sigma := vol.Decimal()
	d1, d2 := d1d2(spot, strike, timeYears, rate, sigma)
	discount := math.Exp(-rate * timeYears)

	if kind == models.Put {
		return strike*discount*normCDF(-d2) - spot*normCDF(-d1), nil
	}
	return spot*normCDF(d1) - strike*discount*normCDF(d2), nil
}

// ProbabilityOfProfit returns the risk-neutral probability the option
// finishes in the money, using the standard d2 term. It returns
// ErrInvalidInputs when volatility, spot, strike, or time is non-positive;
// callers treat that as an unknown (absent) field.
func ProbabilityOfProfit(spot, strike, timeYears, rate float64, vol models.Fraction, kind models.OptionKind) (float64, error) {
	if spot <= 0 || strike <= 0 || timeYears <= 0 || !vol.Positive() {
		return 0, errors.ErrInvalidInputs
	}

	_, d2 := d1d2(spot, strike, timeYears, rate, vol.Decimal())
	if kind == models.Put {
		return normCDF(-d2), nil
	}
	return normCDF(d2), nil
}
