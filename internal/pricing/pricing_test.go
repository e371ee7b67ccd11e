package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

func TestPriceIntrinsicAtZeroTime(t *testing.T) {
	tests := []struct {
		name   string
		spot   float64
		strike float64
		kind   models.OptionKind
		want   float64
	}{
		{"ITM call", 110, 100, models.Call, 10},
		{"OTM call", 95, 100, models.Call, 0},
		{"ITM put", 90, 100, models.Put, 10},
		{"OTM put", 105, 100, models.Put, 0},
		{"ATM call", 100, 100, models.Call, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.spot, tt.strike, 0, 0.05, models.NewFraction(0.25), tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Negative time behaves the same as zero time.
			got, err = Price(tt.spot, tt.strike, -0.01, 0.05, models.NewFraction(0.25), tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceInvalidInputs(t *testing.T) {
	_, err := Price(0, 100, 0.1, 0.05, models.NewFraction(0.25), models.Call)
	assert.ErrorIs(t, err, errors.ErrInvalidInputs)

	_, err = Price(100, -5, 0.1, 0.05, models.NewFraction(0.25), models.Call)
	assert.ErrorIs(t, err, errors.ErrInvalidInputs)

	_, err = Price(100, 100, 0.1, 0.05, 0, models.Call)
	assert.ErrorIs(t, err, errors.ErrInvalidInputs)
}

func TestPriceKnownValues(t *testing.T) {
	// S=100, K=100, T=1y, r=5%, sigma=20%: call ~= 10.4506, put ~= 5.5735.
	call, err := Price(100, 100, 1.0, 0.05, models.NewFraction(0.20), models.Call)
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, call, 1e-3)

	put, err := Price(100, 100, 1.0, 0.05, models.NewFraction(0.20), models.Put)
	require.NoError(t, err)
	assert.InDelta(t, 5.5735, put, 1e-3)

	// Put-call parity: C - P == S - K*exp(-rT).
	parity := 100 - 100*math.Exp(-0.05)
	assert.InDelta(t, parity, call-put, 1e-9)
}

func TestPriceVolNormalization(t *testing.T) {
	// 25 (percent) and 0.25 (decimal) must price identically once
	// normalized through NewFraction.
	a, err := Price(100, 105, 0.1, 0.05, models.NewFraction(0.25), models.Call)
	require.NoError(t, err)
	b, err := Price(100, 105, 0.1, 0.05, models.NewFraction(25), models.Call)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProbabilityOfProfit(t *testing.T) {
	pop, err := ProbabilityOfProfit(100, 100, 0.1, 0.05, models.NewFraction(0.25), models.Call)
	require.NoError(t, err)
	assert.Greater(t, pop, 0.0)
	assert.Less(t, pop, 1.0)

	// Call and put PoP at the same strike sum to 1 (N(d2) + N(-d2)).
	popPut, err := ProbabilityOfProfit(100, 100, 0.1, 0.05, models.NewFraction(0.25), models.Put)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pop+popPut, 1e-12)

	// Deep ITM call is near-certain to finish ITM.
	deep, err := ProbabilityOfProfit(200, 100, 0.05, 0.05, models.NewFraction(0.20), models.Call)
	require.NoError(t, err)
	assert.Greater(t, deep, 0.99)
}

func TestProbabilityOfProfitUnknown(t *testing.T) {
	for _, args := range [][4]float64{
		{0, 100, 0.1, 0.25},  // zero spot
		{100, 0, 0.1, 0.25},  // zero strike
		{100, 100, 0, 0.25},  // zero time
		{100, 100, 0.1, 0},   // zero vol
		{100, 100, -0.1, 0.25},
	} {
		_, err := ProbabilityOfProfit(args[0], args[1], args[2], 0.05, models.Fraction(args[3]), models.Call)
		assert.ErrorIs(t, err, errors.ErrInvalidInputs)
	}
}

func TestSolveImpliedVolRecoversKnownVol(t *testing.T) {
	const vol = 0.35
	price, err := Price(100, 105, 0.25, 0.04, models.Fraction(vol), models.Call)
	require.NoError(t, err)

	solved, err := SolveImpliedVol(100, 105, 0.25, 0.04, models.Call, price, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, vol, solved.Decimal(), 1e-3)
}

func TestSolveImpliedVolNoSolution(t *testing.T) {
	// Market price at or below intrinsic has no valid solution.
	_, err := SolveImpliedVol(110, 100, 0.1, 0.05, models.Call, 10.0, 0, 0)
	assert.ErrorIs(t, err, errors.ErrNoSolution)

	_, err = SolveImpliedVol(110, 100, 0.1, 0.05, models.Call, 8.0, 0, 0)
	assert.ErrorIs(t, err, errors.ErrNoSolution)
}

func TestSolveImpliedVolInvalidInputs(t *testing.T) {
	_, err := SolveImpliedVol(100, 100, 0, 0.05, models.Call, 2.0, 0, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInputs)

	_, err = SolveImpliedVol(100, 100, 0.1, 0.05, models.Call, 0, 0, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInputs)
}

func TestStressTest(t *testing.T) {
	in := StressInput{
		Spot:         100,
		Strike:       105,
		EntryPremium: 2.50,
		TimeYears:    21.0 / 365.0,
		Rate:         0.04,
		Vol:          models.NewFraction(0.30),
		Kind:         models.Call,
		Contracts:    4,
		RiskDollars:  500,
		PctMoves:     []float64{-0.05, -0.02, 0, 0.02, 0.05},
	}

	scenarios, err := StressTest(in)
	require.NoError(t, err)
	require.Len(t, scenarios, 5)

	// P/L is monotonically increasing in the underlying for a long call.
	for i := 1; i < len(scenarios); i++ {
		assert.Greater(t, scenarios[i].PnLDollars, scenarios[i-1].PnLDollars)
	}

	// Down moves lose money, up moves make money, for an ATM-ish call.
	assert.Negative(t, scenarios[0].PnLDollars)
	assert.Positive(t, scenarios[4].PnLDollars)

	// Percent-of-risk is consistent with the declared risk.
	for _, s := range scenarios {
		assert.InDelta(t, s.PnLDollars/500*100, s.PctOfRisk, 1e-9)
	}
}

func TestStressTestZeroRiskGuard(t *testing.T) {
	in := StressInput{
		Spot:         100,
		Strike:       100,
		EntryPremium: 1.0,
		TimeYears:    0.1,
		Rate:         0.05,
		Vol:          models.NewFraction(0.25),
		Kind:         models.Call,
		Contracts:    1,
		RiskDollars:  0,
		PctMoves:     []float64{0.01},
	}
	scenarios, err := StressTest(in)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.False(t, math.IsInf(scenarios[0].PctOfRisk, 0))
}
