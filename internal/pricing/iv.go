package pricing

import (
	"math"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// Default volatility bracket for the IV solver.
const (
	DefaultIVLow  = 0.001
	DefaultIVHigh = 5.0

	ivTolerance = 1e-6
	ivMaxIter   = 100
)

// SolveImpliedVol root-finds the volatility at which the Black-Scholes
// price equals marketPrice, using Brent's method over [low, high]. Pass
// zero bounds to use the defaults. It returns ErrNoSolution when the
// market price is at or below intrinsic value (no volatility can reproduce
// it) and ErrNoConvergence when the root is not bracketed or the iteration
// fails to converge.
func SolveImpliedVol(spot, strike, timeYears, rate float64, kind models.OptionKind, marketPrice, low, high float64) (models.Fraction, error) {
	if spot <= 0 || strike <= 0 || timeYears <= 0 || marketPrice <= 0 {
		return 0, errors.ErrInvalidInputs
	}
	if marketPrice <= Intrinsic(spot, strike, kind) {
		return 0, errors.ErrNoSolution
	}
	if low <= 0 {
		low = DefaultIVLow
	}
	if high <= low {
		high = DefaultIVHigh
	}

	objective := func(sigma float64) float64 {
		p, err := Price(spot, strike, timeYears, rate, models.Fraction(sigma), kind)
		if err != nil {
			return math.NaN()
		}
		return p - marketPrice
	}

	sigma, err := brent(objective, low, high, ivTolerance, ivMaxIter)
	if err != nil {
		return 0, err
	}
	return models.Fraction(sigma), nil
}

// brent finds a root of f in [a, b] with Brent's bracketing method
// (bisection, secant, and inverse quadratic interpolation).
func brent(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	fa := f(a)
	fb := f(b)
	if math.IsNaN(fa) || math.IsNaN(fb) || fa*fb >= 0 {
		if fa == 0 {
			return a, nil
		}
		if fb == 0 {
			return b, nil
		}
		return 0, errors.ErrNoConvergence
	}

	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}

	c, fc := a, fa
	d := 0.0
	useBisect := true

	for i := 0; i < maxIter; i++ {
		if fb == 0 || math.Abs(b-a) < tol {
			return b, nil
		}

		var s float64
		if fa != fc && fb != fc {
			// Inverse quadratic interpolation
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// Secant
			s = b - fb*(b-a)/(fb-fa)
		}

		lo, hi := (3*a+b)/4, b
		if lo > hi {
			lo, hi = hi, lo
		}
		switch {
		case s < lo || s > hi,
			useBisect && math.Abs(s-b) >= math.Abs(b-c)/2,
			!useBisect && math.Abs(s-b) >= math.Abs(c-d)/2,
			useBisect && math.Abs(b-c) < tol,
			!useBisect && math.Abs(c-d) < tol:
			s = (a + b) / 2
			useBisect = true
		default:
			useBisect = false
		}

		fs := f(s)
		if math.IsNaN(fs) {
			return 0, errors.ErrNoConvergence
		}
		d = c
		c, fc = b, fb
		if fa*fs < 0 {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}
	return 0, errors.ErrNoConvergence
}
