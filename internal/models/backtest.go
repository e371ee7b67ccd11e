package models

import "time"

// ExitReason classifies how a simulated trade closed.
type ExitReason string

const (
	ExitStop   ExitReason = "stop"
	ExitTarget ExitReason = "target"
	ExitExpiry ExitReason = "expiry"
)

// BacktestSetup is a historical candidate entry. Generated, never mutated.
type BacktestSetup struct {
	EntryDate     time.Time
	Spot          float64
	Strike        float64
	DTE           int
	EntryPremium  float64
	StopPremium   float64
	TargetPremium float64
	RiskDollars   float64
	EntryVol      float64 // trailing realized vol at entry, decimal annualized
	PoP           float64
}

// BacktestTrade is a setup plus its simulated exit outcome.
type BacktestTrade struct {
	Setup       BacktestSetup
	ExitDate    time.Time
	ExitPremium float64
	PnL         float64
	ExitReason  ExitReason
	HoldingDays int
}

// BacktestResult aggregates the statistics of one backtest run. A run with
// no qualifying history returns a zero-valued result, never an error.
type BacktestResult struct {
	Ticker          string
	NTrades         int
	Wins            int
	Losses          int
	WinRatePct      float64
	AvgWinDollars   float64
	AvgLossDollars  float64
	Expectancy      float64
	TotalPnLDollars float64
	MaxDrawdown     float64
	SharpeAnnual    float64
	Trades          []BacktestTrade
}
