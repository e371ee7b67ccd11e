package backtest

import (
	"math"

	"github.com/rs/zerolog"

	"options-copilot/internal/config"
	"options-copilot/internal/models"
	"options-copilot/internal/pricing"
)

// Engine runs walk-forward backtests over daily bar history. Tickers share
// no state, so callers may run engines for different tickers in parallel.
type Engine struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewEngine creates a backtest engine.
func NewEngine(cfg *config.Config, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

// Run backtests the entry rules against the bar history for one ticker.
// Too little history, or history producing no qualifying setups, yields an
// explicitly zero-valued result, never an error.
func (e *Engine) Run(ticker string, bars []models.Bar) models.BacktestResult {
	result := models.BacktestResult{Ticker: ticker}

	warmup := rankWindow
	if len(bars) <= warmup+1 {
		e.logger.Debug().
			Str("ticker", ticker).
			Int("bars", len(bars)).
			Int("warmup", warmup).
			Msg("Insufficient history for backtest")
		return result
	}

	atrs := atrSeries(bars, e.cfg.Stops.ATR.Period)
	vols := realizedVolSeries(bars, rvWindow)

	for i := warmup; i < len(bars)-1; {
		setup, ok := e.findSetup(bars, atrs, vols, i)
		if !ok {
			i++
			continue
		}

		trade := e.simulate(bars, vols, i, setup)
		result.Trades = append(result.Trades, trade)

		// Entries do not overlap: the next scan starts after the exit.
		exitIdx := i + trade.HoldingDays
		if exitIdx <= i {
			exitIdx = i + 1
		}
		i = exitIdx
	}

	e.aggregate(&result)

	e.logger.Debug().
		Str("ticker", ticker).
		Int("trades", result.NTrades).
		Float64("win_rate_pct", result.WinRatePct).
		Msg("Backtest run complete")

	return result
}

// findSetup applies the entry rules at bar index i: valid realized vol
// below the rank ceiling, an out-of-the-money strike the pricing kernel
// can price, a probability of profit above the floor, and enough expected
// movement (in ATR terms) to plausibly reach the strike.
func (e *Engine) findSetup(bars []models.Bar, atrs, vols []float64, i int) (models.BacktestSetup, bool) {
	cfg := e.cfg.Backtest
	spot := bars[i].Close
	atr := atrs[i]
	rv := vols[i]

	if spot <= 0 || math.IsNaN(atr) || atr <= 0 || math.IsNaN(rv) || rv <= 0 {
		return models.BacktestSetup{}, false
	}

	rank := rvRank(vols, i, rankWindow)
	if math.IsNaN(rank) || rank > cfg.RVRankMax {
		return models.BacktestSetup{}, false
	}

	strike := spot * (1 + cfg.OTMPctMax)
	timeYears := float64(cfg.DTEApprox) / 365.0
	// rv is already a decimal annualized vol; the boundary normalization
	// must not be re-applied here.
	vol := models.Fraction(rv)

	premium, err := pricing.Price(spot, strike, timeYears, cfg.RiskFreeRate, vol, models.Call)
	if err != nil || premium < 0.05 {
		return models.BacktestSetup{}, false
	}

	pop, err := pricing.ProbabilityOfProfit(spot, strike, timeYears, cfg.RiskFreeRate, vol, models.Call)
	if err != nil || pop < cfg.PoPMin {
		return models.BacktestSetup{}, false
	}

	// Reachability filter: expected movement over the holding period,
	// ATR x sqrt(days), must cover the OTM distance by the configured
	// multiple.
	otmDistance := strike - spot
	expectedMove := atr * math.Sqrt(float64(cfg.DTEApprox))
	if otmDistance > 0 && expectedMove/otmDistance < cfg.ATRRRMin {
		return models.BacktestSetup{}, false
	}

	stopPremium := premium * (1 - cfg.StopPct)
	risk := premium - stopPremium
	return models.BacktestSetup{
		EntryDate:     bars[i].Date,
		Spot:          spot,
		Strike:        strike,
		DTE:           cfg.DTEApprox,
		EntryPremium:  premium,
		StopPremium:   stopPremium,
		TargetPremium: premium + cfg.TargetR*risk,
		RiskDollars:   risk * 100, // one contract per setup for normalization
		EntryVol:      rv,
		PoP:           pop,
	}, true
}

// simulate walks the trade forward from the day after entry, repricing
// daily with that day's spot and trailing realized vol, until stop,
// target, expiry, or the holding cap resolves it.
func (e *Engine) simulate(bars []models.Bar, vols []float64, entryIdx int, setup models.BacktestSetup) models.BacktestTrade {
	cfg := e.cfg.Backtest

	maxHold := cfg.MaxHoldingDays
	if cfg.DTEApprox < maxHold {
		maxHold = cfg.DTEApprox
	}

	trade := models.BacktestTrade{Setup: setup}
	lastVol := setup.EntryVol

	for d := 1; d <= maxHold; d++ {
		j := entryIdx + d
		if j >= len(bars) {
			break
		}
		spot := bars[j].Close
		if !math.IsNaN(vols[j]) && vols[j] > 0 {
			lastVol = vols[j]
		}

		daysLeft := setup.DTE - d
		priced := false
		var premium float64
		if daysLeft <= 0 {
			premium = pricing.Intrinsic(spot, setup.Strike, models.Call)
			priced = true
		} else if p, err := pricing.Price(spot, setup.Strike, float64(daysLeft)/365.0, cfg.RiskFreeRate, models.Fraction(lastVol), models.Call); err == nil {
			premium = p
			priced = true
		}

		if priced {
			switch {
			case premium <= setup.StopPremium:
				return e.close(trade, bars[j], setup.StopPremium, models.ExitStop, d)
			case premium >= setup.TargetPremium:
				return e.close(trade, bars[j], setup.TargetPremium, models.ExitTarget, d)
			}
		}
		if daysLeft <= 0 || d == maxHold {
			// Contractual expiry, or the holding cap: settle at intrinsic.
			// Runs even when a bad bar made the day unpriceable, so the
			// cap exit cannot be skipped.
			return e.close(trade, bars[j], pricing.Intrinsic(spot, setup.Strike, models.Call), models.ExitExpiry, d)
		}
	}

	// History ran out before resolution; settle at intrinsic on the last bar.
	last := len(bars) - 1
	return e.close(trade, bars[last], pricing.Intrinsic(bars[last].Close, setup.Strike, models.Call), models.ExitExpiry, last-entryIdx)
}

func (e *Engine) close(trade models.BacktestTrade, bar models.Bar, exitPremium float64, reason models.ExitReason, holdingDays int) models.BacktestTrade {
	trade.ExitDate = bar.Date
	trade.ExitPremium = exitPremium
	trade.PnL = (exitPremium - trade.Setup.EntryPremium) * 100
	trade.ExitReason = reason
	trade.HoldingDays = holdingDays
	return trade
}

// aggregate fills the summary statistics from the trade list.
func (e *Engine) aggregate(result *models.BacktestResult) {
	result.NTrades = len(result.Trades)
	if result.NTrades == 0 {
		return
	}

	var winSum, lossSum, totalHolding float64
	rReturns := make([]float64, 0, result.NTrades)
	for _, t := range result.Trades {
		result.TotalPnLDollars += t.PnL
		totalHolding += float64(t.HoldingDays)
		if t.PnL > 0 {
			result.Wins++
			winSum += t.PnL
		} else {
			result.Losses++
			lossSum += t.PnL
		}
		if t.Setup.RiskDollars > 0 {
			rReturns = append(rReturns, t.PnL/t.Setup.RiskDollars)
		}
	}

	result.WinRatePct = float64(result.Wins) / float64(result.NTrades) * 100
	if result.Wins > 0 {
		result.AvgWinDollars = winSum / float64(result.Wins)
	}
	if result.Losses > 0 {
		result.AvgLossDollars = lossSum / float64(result.Losses)
	}
	winRate := float64(result.Wins) / float64(result.NTrades)
	result.Expectancy = winRate*result.AvgWinDollars + (1-winRate)*result.AvgLossDollars

	var peak, cumulative, maxDD float64
	for _, t := range result.Trades {
		cumulative += t.PnL
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	result.MaxDrawdown = maxDD

	result.SharpeAnnual = e.sharpe(rReturns, totalHolding/float64(result.NTrades))
}

// sharpe annualizes the per-trade R-normalized returns by the estimated
// number of trades per year implied by the average holding period.
func (e *Engine) sharpe(rReturns []float64, avgHoldingDays float64) float64 {
	if len(rReturns) < 2 || avgHoldingDays <= 0 {
		return 0
	}
	std, ok := stddev(rReturns)
	if !ok || std == 0 {
		return 0
	}
	var sum float64
	for _, r := range rReturns {
		sum += r
	}
	mean := sum / float64(len(rReturns))
	tradesPerYear := tradingDaysPerYear / avgHoldingDays
	return mean / std * math.Sqrt(tradesPerYear)
}
