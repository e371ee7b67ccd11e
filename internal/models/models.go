// Package models defines the core data types shared across the engine.
package models

import "time"

// OptionKind represents the option contract type.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// IsValid reports whether the kind is CALL or PUT.
func (k OptionKind) IsValid() bool {
	return k == Call || k == Put
}

// OptionContract is a parsed trade description. Immutable once parsed.
type OptionContract struct {
	Ticker     string
	Strike     float64
	Kind       OptionKind
	Expiration *time.Time
	DTE        int // days to expiration; 0 = same-day (0DTE)
	Premium    float64
	RawMessage string
	ParsedAt   time.Time
}

// IsSameDay reports whether this is a 0DTE trade.
func (c OptionContract) IsSameDay() bool {
	return c.DTE == 0
}

// TimeYears converts DTE to Black-Scholes time in years.
func (c OptionContract) TimeYears() float64 {
	if c.DTE < 0 {
		return 0
	}
	return float64(c.DTE) / 365.0
}

// Greeks holds the option sensitivities supplied by market data.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// Zone is a technical support or resistance level on the underlying.
type Zone struct {
	Price    float64
	Strength float64 // 0-100
	Touches  int
}

// MarketContext bundles the market inputs the engine consumes. Every field
// except Spot may be absent; absent fields degrade to simpler fallbacks,
// never to a hard failure.
type MarketContext struct {
	Spot            float64
	ImpliedVol      *Fraction
	Greeks          *Greeks
	RealizedVol     *Fraction
	IVRank          *float64 // 0-100
	ATR             *float64
	SupportZones    []Zone
	ResistanceZones []Zone
	SetupScore      *float64 // 0-100
}

// TradeOutcome is one row of trade history used by the sizer for the
// Kelly and equity-curve adjustments.
type TradeOutcome struct {
	Ticker    string
	PnL       float64
	RMultiple float64
	ClosedAt  time.Time
}

// Bar is one daily OHLC candle of the underlying.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
