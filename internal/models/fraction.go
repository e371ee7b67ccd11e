package models

// Fraction is a decimal fraction (0.25 means 25%). Values arriving at the
// system boundary may be quoted either as decimals (0.25) or as percentages
// (25); NewFraction normalizes exactly once so no downstream code ever
// sniffs magnitudes again. Values <= 2 are treated as already-decimal,
// values > 2 as percentages.
type Fraction float64

// NewFraction normalizes a volatility-style input into a decimal fraction.
func NewFraction(v float64) Fraction {
	if v > 2 {
		return Fraction(v / 100)
	}
	return Fraction(v)
}

// Decimal returns the fraction as a plain float64 decimal.
func (f Fraction) Decimal() float64 {
	return float64(f)
}

// Percent returns the fraction expressed as a percentage.
func (f Fraction) Percent() float64 {
	return float64(f) * 100
}

// Positive reports whether the fraction is strictly positive.
func (f Fraction) Positive() bool {
	return f > 0
}
