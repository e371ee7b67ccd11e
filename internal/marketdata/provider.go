// Package marketdata supplies daily price history for the backtest engine
// and spot context for analysis.
package marketdata

import (
	"context"
	"time"

	"options-copilot/internal/models"
)

// Provider serves daily bar history. Implementations must be safe for use
// from concurrent backtest fan-out.
type Provider interface {
	DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error)
}
