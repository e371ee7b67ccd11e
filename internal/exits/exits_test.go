package exits

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-copilot/internal/config"
	"options-copilot/internal/models"
)

func testCalculator(t *testing.T, mutate func(*config.Config)) *Calculator {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewCalculator(cfg, zerolog.Nop())
}

func floatPtr(v float64) *float64 { return &v }

func TestInitialStop(t *testing.T) {
	c := testCalculator(t, nil)

	tests := []struct {
		name     string
		entry    float64
		sameDay  bool
		wantStop float64
	}{
		{"percentage stop wins for cheap premium", 2.50, false, 1.25},
		{"dollar cap wins for rich premium", 12.00, false, 7.00},
		{"0dte uses tighter percentage", 2.50, true, 1.75},
		{"0dte pct still tighter than dollar cap", 12.00, true, 8.40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, riskPct := c.InitialStop(tt.entry, tt.sameDay)
			assert.InDelta(t, tt.wantStop, stop, 1e-9)
			assert.InDelta(t, (tt.entry-tt.wantStop)/tt.entry*100, riskPct, 1e-9)
		})
	}
}

func TestRBasedTargetFallback(t *testing.T) {
	c := testCalculator(t, nil)

	contract := models.OptionContract{Ticker: "XYZ", Strike: 100, Kind: models.Call, DTE: 14, Premium: 2.50}
	plan := c.Plan(contract, models.MarketContext{Spot: 98}, 10, 0.04)

	assert.InDelta(t, 1.25, plan.StopLoss, 1e-9)
	assert.Equal(t, "r_based", plan.TargetSource)
	assert.InDelta(t, 3.75, plan.Target, 1e-9) // 2R on $1.25 risk
	assert.InDelta(t, 2.0, plan.TargetR, 1e-9)
	assert.InDelta(t, 8.75, plan.RunnerTarget, 1e-9) // 5R runner
}

func TestTechnicalTargetsPreferred(t *testing.T) {
	c := testCalculator(t, nil)

	contract := models.OptionContract{Ticker: "XYZ", Strike: 100, Kind: models.Call, DTE: 14, Premium: 2.50}
	ctx := models.MarketContext{
		Spot:   100,
		Greeks: &models.Greeks{Delta: 0.5},
		ResistanceZones: []models.Zone{
			{Price: 110, Strength: 60, Touches: 2},
			{Price: 105, Strength: 80, Touches: 3},
			{Price: 95, Strength: 90, Touches: 5}, // below spot, skipped
		},
	}

	targets := c.Targets(contract, ctx, 1.25, 0.04)

	require.Equal(t, "technical", targets.Source)
	require.Len(t, targets.Levels, 2)
	// Delta-scaled: 2.50 + 0.5*5 = 5.00, then 2.50 + 0.5*10 = 7.50.
	assert.InDelta(t, 5.00, targets.Levels[0].Premium, 1e-9)
	assert.InDelta(t, 7.50, targets.Levels[1].Premium, 1e-9)
	assert.InDelta(t, 105, targets.Levels[0].Underlying, 1e-9)
}

func TestTechnicalTargetsForPutWalkSupportDown(t *testing.T) {
	c := testCalculator(t, nil)

	contract := models.OptionContract{Ticker: "XYZ", Strike: 100, Kind: models.Put, DTE: 14, Premium: 2.00}
	ctx := models.MarketContext{
		Spot:   100,
		Greeks: &models.Greeks{Delta: -0.45},
		SupportZones: []models.Zone{
			{Price: 90, Strength: 70, Touches: 2},
			{Price: 96, Strength: 85, Touches: 4},
		},
	}

	targets := c.Targets(contract, ctx, 1.00, 0.04)

	require.Equal(t, "technical", targets.Source)
	require.Len(t, targets.Levels, 2)
	// Nearest support first: 2.00 + 0.45*4 = 3.80, then 2.00 + 0.45*10 = 6.50.
	assert.InDelta(t, 3.80, targets.Levels[0].Premium, 1e-9)
	assert.InDelta(t, 6.50, targets.Levels[1].Premium, 1e-9)
}

func TestZonesBelowEntryPremiumRejected(t *testing.T) {
	c := testCalculator(t, nil)

	contract := models.OptionContract{Ticker: "XYZ", Strike: 100, Kind: models.Call, DTE: 14, Premium: 5.00}
	ctx := models.MarketContext{
		Spot:            100,
		Greeks:          &models.Greeks{Delta: 0.5},
		ResistanceZones: []models.Zone{{Price: 101, Strength: 50, Touches: 1}},
	}

	// 5.00 + 0.5*1 = 5.50 > 5.00 qualifies; shrink delta so it does not.
	ctx.Greeks.Delta = 0.0
	targets := c.Targets(contract, ctx, 2.50, 0.04)
	assert.Equal(t, "r_based", targets.Source)
}

func TestExitLadderSumsToTotal(t *testing.T) {
	targets := TargetSet{Source: "r_based", Levels: []TargetLevel{
		{Premium: 3.75, RMultiple: 2.0},
		{Premium: 6.25, RMultiple: 3.0},
		{Premium: 8.75, RMultiple: 5.0},
	}}

	methods := []string{"technical_weighted", "r_based", "equal_thirds"}
	totals := []int{1, 2, 3, 7, 10, 16, 100}

	for _, method := range methods {
		c := testCalculator(t, func(cfg *config.Config) {
			cfg.PartialExits.ScalingMethod = method
		})
		for _, total := range totals {
			ladder := c.ExitLadder(total, 2.50, 1.25, targets)
			sum := 0
			for _, level := range ladder {
				sum += level.Contracts
				assert.Greater(t, level.Contracts, 0, "%s/%d: zero-contract level", method, total)
			}
			assert.Equal(t, total, sum, "%s with %d contracts", method, total)
		}
	}
}

func TestExitLadderWeights(t *testing.T) {
	c := testCalculator(t, nil) // technical_weighted 40/30/30

	targets := TargetSet{Source: "r_based", Levels: []TargetLevel{
		{Premium: 3.75, RMultiple: 2.0},
		{Premium: 6.25, RMultiple: 3.0},
		{Premium: 8.75, RMultiple: 5.0},
	}}

	ladder := c.ExitLadder(10, 2.50, 1.25, targets)
	require.Len(t, ladder, 3)
	assert.Equal(t, 4, ladder[0].Contracts)
	assert.Equal(t, 3, ladder[1].Contracts)
	assert.Equal(t, 3, ladder[2].Contracts) // remainder absorbed by last level
}

func TestTrailingStopBreakeven(t *testing.T) {
	c := testCalculator(t, nil)

	// Entry 2.50, initial stop 1.25, risk 1.25. At 5.00 profit is 2R.
	result := c.UpdateTrailingStop(TrailInput{
		EntryPremium:   2.50,
		CurrentPremium: 5.00,
		InitialStop:    1.25,
		PriorStop:      1.25,
		Kind:           models.Call,
	})

	assert.True(t, result.Active)
	assert.Equal(t, models.StopBreakeven, result.Source)
	assert.InDelta(t, 2.50, result.Price, 1e-9)
	assert.InDelta(t, 2.0, result.ProfitR, 1e-9)
}

func TestTrailingStopBelowTriggerHoldsPrior(t *testing.T) {
	c := testCalculator(t, nil)

	result := c.UpdateTrailingStop(TrailInput{
		EntryPremium:   2.50,
		CurrentPremium: 3.00,
		InitialStop:    1.25,
		PriorStop:      1.25,
		Kind:           models.Call,
	})

	assert.False(t, result.Active)
	assert.InDelta(t, 1.25, result.Price, 1e-9)
}

func TestTrailingStopTechnicalOutranksATR(t *testing.T) {
	c := testCalculator(t, nil)

	result := c.UpdateTrailingStop(TrailInput{
		EntryPremium:   2.50,
		CurrentPremium: 6.00,
		InitialStop:    1.25,
		PriorStop:      2.50,
		Spot:           108,
		ATR:            floatPtr(2.0),
		Delta:          floatPtr(0.5),
		SupportZones:   []models.Zone{{Price: 104, Strength: 80, Touches: 3}},
		Kind:           models.Call,
	})

	assert.True(t, result.Active)
	assert.Equal(t, models.StopTechnical, result.Source)
	// Zone 104 with spot 108: 6.00 - 0.5*4 = 4.00.
	assert.InDelta(t, 4.00, result.Price, 1e-9)
}

func TestTrailingStopNeverLoosens(t *testing.T) {
	c := testCalculator(t, nil)

	// Premium rallies then fades; the stop must only ratchet up.
	premiums := []float64{3.00, 4.50, 6.00, 5.00, 4.00, 3.50}
	prior := 1.25
	for _, premium := range premiums {
		result := c.UpdateTrailingStop(TrailInput{
			EntryPremium:   2.50,
			CurrentPremium: premium,
			InitialStop:    1.25,
			PriorStop:      prior,
			Spot:           100,
			ATR:            floatPtr(1.5),
			Delta:          floatPtr(0.5),
			Kind:           models.Call,
		})
		assert.GreaterOrEqual(t, result.Price, prior, "stop loosened at premium %.2f", premium)
		prior = result.Price
	}
}
