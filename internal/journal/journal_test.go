package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "journal.csv"), zerolog.Nop())
}

func testPlan(id, ticker string, premium, stop float64, contracts int) *models.TradePlan {
	pop := 0.62
	return &models.TradePlan{
		ID:        id,
		CreatedAt: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
		Contract: models.OptionContract{
			Ticker:  ticker,
			Strike:  185,
			Kind:    models.Call,
			DTE:     10,
			Premium: premium,
		},
		Position: models.PositionSizeResult{
			Contracts:   contracts,
			RiskDollars: (premium - stop) * 100 * float64(contracts),
		},
		StopTarget: models.StopTargetPlan{StopLoss: stop, Target: premium * 2},
		PoP:        &pop,
	}
}

func TestEmptyJournal(t *testing.T) {
	j := testJournal(t)

	entries, err := j.All()
	require.NoError(t, err)
	assert.Empty(t, entries)

	history, err := j.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordAndReadBack(t *testing.T) {
	j := testJournal(t)

	require.NoError(t, j.Record(testPlan("id-1", "AAPL", 2.50, 1.25, 16)))
	require.NoError(t, j.Record(testPlan("id-2", "SPY", 1.80, 0.90, 10)))

	entries, err := j.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "id-1", entries[0].ID)
	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, 2.50, entries[0].EntryPremium)
	assert.Equal(t, 16, entries[0].Contracts)
	assert.Equal(t, 0.62, entries[0].PoP)
	assert.False(t, entries[0].Closed())
}

func TestCloseComputesPnLAndR(t *testing.T) {
	j := testJournal(t)
	require.NoError(t, j.Record(testPlan("id-1", "AAPL", 2.50, 1.25, 16)))

	closed, err := j.Close("id-1", 3.75, models.ExitTarget)
	require.NoError(t, err)

	assert.True(t, closed.Closed())
	assert.InDelta(t, (3.75-2.50)*100*16, closed.PnL, 1e-9)
	assert.InDelta(t, 1.0, closed.RMultiple, 1e-9) // 1.25 gained on 1.25 risked

	entries, err := j.All()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "target", entries[0].ExitReason)
}

func TestCloseUnknownID(t *testing.T) {
	j := testJournal(t)
	require.NoError(t, j.Record(testPlan("id-1", "AAPL", 2.50, 1.25, 16)))

	_, err := j.Close("missing", 1.00, models.ExitStop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrJournalNotFound))
}

func TestHistoryAndOpenRisk(t *testing.T) {
	j := testJournal(t)
	require.NoError(t, j.Record(testPlan("id-1", "AAPL", 2.50, 1.25, 16)))
	require.NoError(t, j.Record(testPlan("id-2", "SPY", 1.80, 0.90, 10)))
	_, err := j.Close("id-1", 1.25, models.ExitStop)
	require.NoError(t, err)

	history, err := j.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "AAPL", history[0].Ticker)
	assert.InDelta(t, -1.0, history[0].RMultiple, 1e-9)

	open, err := j.OpenRisk()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "SPY", open[0].Ticker)
	assert.InDelta(t, 900.0, open[0].RiskDollars, 1e-9)
}

func TestDrawdownPct(t *testing.T) {
	j := testJournal(t)
	require.NoError(t, j.Record(testPlan("id-1", "AAPL", 2.50, 1.25, 16)))
	require.NoError(t, j.Record(testPlan("id-2", "SPY", 1.80, 0.90, 10)))

	// Win +$2,000 then a stop-out of -$900: drawdown $900 on $100k.
	_, err := j.Close("id-1", 3.75, models.ExitTarget)
	require.NoError(t, err)
	dd, err := j.DrawdownPct(100000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dd, 1e-9)

	_, err = j.Close("id-2", 0.90, models.ExitStop)
	require.NoError(t, err)
	dd, err = j.DrawdownPct(100000)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, dd, 1e-9)
}
