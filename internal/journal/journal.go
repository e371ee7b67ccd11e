// Package journal persists trade plans and outcomes to a flat CSV file.
// Single-writer access is assumed; concurrent writers are out of scope.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// Entry is one journal row. Closed trades carry the exit fields; open
// trades leave them zero.
type Entry struct {
	ID            string  `csv:"id"`
	Timestamp     string  `csv:"timestamp"`
	Ticker        string  `csv:"ticker"`
	Kind          string  `csv:"kind"`
	Strike        float64 `csv:"strike"`
	EntryPremium  float64 `csv:"entry_premium"`
	DTE           int     `csv:"dte"`
	PoP           float64 `csv:"pop"`
	IVRank        float64 `csv:"iv_rank"`
	ATR           float64 `csv:"atr"`
	StopPremium   float64 `csv:"stop_premium"`
	TargetPremium float64 `csv:"target_premium"`
	SetupScore    float64 `csv:"setup_score"`
	RiskDollars   float64 `csv:"risk_dollars"`
	Contracts     int     `csv:"contracts"`
	ExitPremium   float64 `csv:"exit_premium"`
	ExitReason    string  `csv:"exit_reason"`
	PnL           float64 `csv:"pnl"`
	RMultiple     float64 `csv:"r_multiple"`
}

// Closed reports whether the trade has been closed out.
func (e Entry) Closed() bool {
	return e.ExitReason != ""
}

// Journal reads and writes the CSV trade log.
type Journal struct {
	path   string
	logger zerolog.Logger
}

// New creates a journal backed by the CSV file at path.
func New(path string, logger zerolog.Logger) *Journal {
	return &Journal{path: path, logger: logger}
}

// Record appends a trade plan to the journal.
func (j *Journal) Record(plan *models.TradePlan) error {
	entries, err := j.All()
	if err != nil {
		return err
	}

	entry := Entry{
		ID:            plan.ID,
		Timestamp:     plan.CreatedAt.Format(time.RFC3339),
		Ticker:        plan.Contract.Ticker,
		Kind:          string(plan.Contract.Kind),
		Strike:        plan.Contract.Strike,
		EntryPremium:  plan.Contract.Premium,
		DTE:           plan.Contract.DTE,
		StopPremium:   plan.StopTarget.StopLoss,
		TargetPremium: plan.StopTarget.Target,
		RiskDollars:   plan.Position.RiskDollars,
		Contracts:     plan.Position.Contracts,
	}
	if plan.PoP != nil {
		entry.PoP = *plan.PoP
	}
	if plan.Context.IVRank != nil {
		entry.IVRank = *plan.Context.IVRank
	}
	if plan.Context.ATR != nil {
		entry.ATR = *plan.Context.ATR
	}
	if plan.Context.SetupScore != nil {
		entry.SetupScore = *plan.Context.SetupScore
	}

	entries = append(entries, entry)
	if err := j.write(entries); err != nil {
		return err
	}

	j.logger.Info().
		Str("plan_id", plan.ID).
		Str("ticker", entry.Ticker).
		Msg("Trade journaled")
	return nil
}

// Close records the exit for an open trade and computes its P/L and
// R-multiple. Unknown ids return ErrJournalNotFound.
func (j *Journal) Close(id string, exitPremium float64, reason models.ExitReason) (*Entry, error) {
	entries, err := j.All()
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		e := &entries[i]
		e.ExitPremium = exitPremium
		e.ExitReason = string(reason)
		e.PnL = (exitPremium - e.EntryPremium) * 100 * float64(e.Contracts)
		if riskPerContract := (e.EntryPremium - e.StopPremium) * 100; riskPerContract > 0 {
			e.RMultiple = (exitPremium - e.EntryPremium) * 100 / riskPerContract
		}
		if err := j.write(entries); err != nil {
			return nil, err
		}
		j.logger.Info().
			Str("plan_id", id).
			Float64("pnl", e.PnL).
			Str("exit_reason", string(reason)).
			Msg("Trade closed")
		result := entries[i]
		return &result, nil
	}
	return nil, fmt.Errorf("closing trade %s: %w", id, errors.ErrJournalNotFound)
}

// All returns every journal entry in recorded order. A missing file is an
// empty journal, not an error.
func (j *Journal) All() ([]Entry, error) {
	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := gocsv.UnmarshalFile(file, &entries); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

// History converts closed trades into the outcome list consumed by the
// position sizer's Kelly and equity-curve adjustments.
func (j *Journal) History() ([]models.TradeOutcome, error) {
	entries, err := j.All()
	if err != nil {
		return nil, err
	}

	var outcomes []models.TradeOutcome
	for _, e := range entries {
		if !e.Closed() {
			continue
		}
		closedAt, _ := time.Parse(time.RFC3339, e.Timestamp)
		outcomes = append(outcomes, models.TradeOutcome{
			Ticker:    e.Ticker,
			PnL:       e.PnL,
			RMultiple: e.RMultiple,
			ClosedAt:  closedAt,
		})
	}
	return outcomes, nil
}

// OpenRisk returns open positions and their at-risk dollars, feeding the
// sizer's correlation-group cap.
func (j *Journal) OpenRisk() ([]OpenEntry, error) {
	entries, err := j.All()
	if err != nil {
		return nil, err
	}

	var open []OpenEntry
	for _, e := range entries {
		if e.Closed() {
			continue
		}
		open = append(open, OpenEntry{Ticker: e.Ticker, RiskDollars: e.RiskDollars})
	}
	return open, nil
}

// OpenEntry is an open position's contribution to group risk.
type OpenEntry struct {
	Ticker      string
	RiskDollars float64
}

// DrawdownPct computes the current drawdown of cumulative closed P/L from
// its running peak, as a percentage of capital.
func (j *Journal) DrawdownPct(capital float64) (float64, error) {
	if capital <= 0 {
		return 0, nil
	}
	entries, err := j.All()
	if err != nil {
		return 0, err
	}

	var cumulative, peak float64
	for _, e := range entries {
		if !e.Closed() {
			continue
		}
		cumulative += e.PnL
		if cumulative > peak {
			peak = cumulative
		}
	}
	if peak <= cumulative {
		return 0, nil
	}
	return (peak - cumulative) / capital * 100, nil
}

func (j *Journal) write(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}
	file, err := os.Create(j.path)
	if err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&entries, file); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}
