package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-copilot/internal/models"
)

// Property: solving implied vol on a Black-Scholes price recovers the
// volatility that produced it, within numerical tolerance.
func TestIVRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("solve_implied_vol(price(vol)) ~= vol", prop.ForAll(
		func(spot, moneyness, timeYears, rate, vol float64, isPut bool) bool {
			strike := spot * moneyness
			kind := models.Call
			if isPut {
				kind = models.Put
			}

			price, err := Price(spot, strike, timeYears, rate, models.Fraction(vol), kind)
			if err != nil {
				return false
			}
			// Prices indistinguishable from intrinsic carry no vol signal.
			if price-Intrinsic(spot, strike, kind) < 1e-8 {
				return true
			}

			solved, err := SolveImpliedVol(spot, strike, timeYears, rate, kind, price, 0, 0)
			if err != nil {
				return false
			}
			return math.Abs(solved.Decimal()-vol) < 1e-3
		},
		gen.Float64Range(10, 1000),
		gen.Float64Range(0.7, 1.3),
		gen.Float64Range(0.01, 2.0),
		gen.Float64Range(0.0, 0.10),
		gen.Float64Range(0.05, 2.0),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: a Black-Scholes premium is never below intrinsic value and a
// call premium never exceeds the spot.
func TestPriceBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("intrinsic <= premium, call premium <= spot", prop.ForAll(
		func(spot, moneyness, timeYears, vol float64, isPut bool) bool {
			strike := spot * moneyness
			kind := models.Call
			if isPut {
				kind = models.Put
			}
			price, err := Price(spot, strike, timeYears, 0.05, models.Fraction(vol), kind)
			if err != nil {
				return false
			}
			if price < Intrinsic(spot, strike, kind)-1e-9 {
				return false
			}
			if kind == models.Call && price > spot+1e-9 {
				return false
			}
			return true
		},
		gen.Float64Range(1, 5000),
		gen.Float64Range(0.5, 1.5),
		gen.Float64Range(0.001, 3.0),
		gen.Float64Range(0.01, 2.0),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: PoP is always a probability.
func TestPoPBoundsProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("pop in [0, 1]", prop.ForAll(
		func(spot, moneyness, timeYears, vol float64, isPut bool) bool {
			kind := models.Call
			if isPut {
				kind = models.Put
			}
			pop, err := ProbabilityOfProfit(spot, spot*moneyness, timeYears, 0.05, models.Fraction(vol), kind)
			if err != nil {
				return false
			}
			return pop >= 0 && pop <= 1
		},
		gen.Float64Range(1, 5000),
		gen.Float64Range(0.5, 1.5),
		gen.Float64Range(0.001, 3.0),
		gen.Float64Range(0.01, 2.0),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
