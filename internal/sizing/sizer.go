// Package sizing converts account capital, premium risk, and setup context
// into a contract count and risk percentage.
package sizing

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"options-copilot/internal/config"
	"options-copilot/internal/errors"
	"options-copilot/internal/logging"
	"options-copilot/internal/models"
)

const (
	kellyFloor   = 0.001
	kellyCeiling = 0.10
)

// OpenPosition is an already-open trade whose risk counts toward the
// correlation-group cap.
type OpenPosition struct {
	Ticker      string
	RiskDollars float64
}

// Input carries everything the sizer needs for one trade.
type Input struct {
	Ticker       string
	EntryPremium float64
	StopPremium  float64
	SetupScore   *float64
	IVRank       *float64
	History      []models.TradeOutcome
	DrawdownPct  float64 // current drawdown, percent of peak equity
	Open         []OpenPosition
}

// Sizer computes position sizes under the configured policy.
type Sizer struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewSizer creates a position sizer.
func NewSizer(cfg *config.Config, logger zerolog.Logger) *Sizer {
	return &Sizer{cfg: cfg, logger: logger}
}

// Size computes the position size for one trade. The composite policy is
// used when configured and a setup score is available; any composite
// failure falls back to the fixed-fraction policy with the fallback
// recorded on the result, never propagated as an error.
func (s *Sizer) Size(in Input) models.PositionSizeResult {
	if s.cfg.Sizing.Method == "composite" && in.SetupScore != nil {
		result, err := s.sizeComposite(in)
		if err == nil {
			return result
		}
		logging.LogSizingFallback(s.logger, in.Ticker, err.Error())
		fixed := s.sizeFixed(in)
		fixed.Method = models.SizingFixedFallback
		fixed.FallbackReason = err.Error()
		return fixed
	}
	return s.sizeFixed(in)
}

// sizeFixed implements the fixed-fraction policy: risk a constant fraction
// of capital per trade.
func (s *Sizer) sizeFixed(in Input) models.PositionSizeResult {
	capital := s.cfg.Account.TotalCapital
	riskPct := s.cfg.Sizing.BaseRiskPct
	riskDollars := capital * riskPct

	perContract := perContractRisk(in.EntryPremium, in.StopPremium)
	if perContract <= 0 {
		return models.PositionSizeResult{
			Contracts:   s.defaultContracts(),
			Method:      models.SizingFixed,
			BaseRiskPct: riskPct,
			Reasoning:   "stop at or above entry premium; using default contract count",
		}
	}

	contracts := int(riskDollars / perContract)
	if contracts < 1 {
		contracts = 1
	}

	result := models.PositionSizeResult{
		Contracts:   contracts,
		Method:      models.SizingFixed,
		BaseRiskPct: riskPct,
	}
	s.finalize(&result, in, perContract)
	result.Reasoning = fmt.Sprintf("fixed %.1f%% of $%.0f capital, $%.0f risk per contract",
		riskPct*100, capital, perContract)
	return result
}

// sizeComposite implements the composite policy: five independent
// multiplicative adjustments on the base risk fraction, each reported
// separately.
func (s *Sizer) sizeComposite(in Input) (models.PositionSizeResult, error) {
	if in.EntryPremium <= 0 {
		return models.PositionSizeResult{}, errors.NewSizingError("inputs", fmt.Errorf("entry premium %.2f not positive", in.EntryPremium))
	}
	perContract := perContractRisk(in.EntryPremium, in.StopPremium)
	if perContract <= 0 {
		return models.PositionSizeResult{}, errors.NewSizingError("inputs", fmt.Errorf("stop %.2f at or above entry %.2f", in.StopPremium, in.EntryPremium))
	}

	base := s.cfg.Sizing.BaseRiskPct
	adjustments := make([]models.Adjustment, 0, 5)

	kellyMult, kellyDetail, err := s.kellyAdjustment(in.History)
	if err != nil {
		return models.PositionSizeResult{}, errors.NewSizingError("kelly", err)
	}
	adjustments = append(adjustments, models.Adjustment{Name: "kelly", Multiplier: kellyMult, Detail: kellyDetail})

	volMult, volDetail := s.volatilityAdjustment(in.IVRank)
	adjustments = append(adjustments, models.Adjustment{Name: "volatility", Multiplier: volMult, Detail: volDetail})

	qualMult, qualDetail := qualityAdjustment(*in.SetupScore)
	adjustments = append(adjustments, models.Adjustment{Name: "setup_quality", Multiplier: qualMult, Detail: qualDetail})

	eqMult, eqDetail := s.equityCurveAdjustment(in.History)
	adjustments = append(adjustments, models.Adjustment{Name: "equity_curve", Multiplier: eqMult, Detail: eqDetail})

	ddMult, ddDetail := drawdownAdjustment(in.DrawdownPct)
	adjustments = append(adjustments, models.Adjustment{Name: "drawdown", Multiplier: ddMult, Detail: ddDetail})

	riskPct := base
	for _, a := range adjustments {
		riskPct *= a.Multiplier
	}
	if riskPct > s.cfg.Account.MaxRiskPerTrade {
		riskPct = s.cfg.Account.MaxRiskPerTrade
		adjustments = append(adjustments, models.Adjustment{
			Name:       "max_risk_clamp",
			Multiplier: 1.0,
			Detail:     fmt.Sprintf("clamped to max risk per trade %.1f%%", riskPct*100),
		})
	}
	if riskPct < s.cfg.Sizing.MinRiskPct {
		riskPct = s.cfg.Sizing.MinRiskPct
	}

	capital := s.cfg.Account.TotalCapital
	riskDollars := capital * riskPct
	contracts := int(riskDollars / perContract)
	if contracts < 1 {
		contracts = 1
	}

	result := models.PositionSizeResult{
		Contracts:   contracts,
		Method:      models.SizingComposite,
		BaseRiskPct: base,
		Adjustments: adjustments,
	}
	s.finalize(&result, in, perContract)

	parts := make([]string, 0, len(result.Adjustments))
	for _, a := range result.Adjustments {
		parts = append(parts, fmt.Sprintf("%s %.2fx", a.Name, a.Multiplier))
	}
	result.Reasoning = fmt.Sprintf("base %.1f%% adjusted by %s", base*100, strings.Join(parts, ", "))
	return result, nil
}

// finalize applies the position-value cap and correlation-group cap, then
// recomputes the dollar figures from the final contract count.
func (s *Sizer) finalize(result *models.PositionSizeResult, in Input, perContract float64) {
	capital := s.cfg.Account.TotalCapital
	maxValue := capital * s.cfg.Account.MaxPositionPct

	if max := s.cfg.Account.MaxOpenPositions; max > 0 && len(in.Open) >= max && result.Contracts > 1 {
		result.Adjustments = append(result.Adjustments, models.Adjustment{
			Name:       "open_position_cap",
			Multiplier: 1.0 / float64(result.Contracts),
			Detail: fmt.Sprintf("%d positions already open (max %d), reduced to minimum size",
				len(in.Open), max),
		})
		result.Contracts = 1
	}

	if float64(result.Contracts)*in.EntryPremium*100 > maxValue {
		capped := int(maxValue / (in.EntryPremium * 100))
		if capped < 1 {
			capped = 1
		}
		result.Adjustments = append(result.Adjustments, models.Adjustment{
			Name:       "position_value_cap",
			Multiplier: float64(capped) / float64(result.Contracts),
			Detail: fmt.Sprintf("position value capped at %.0f%% of capital, %d -> %d contracts",
				s.cfg.Account.MaxPositionPct*100, result.Contracts, capped),
		})
		result.Contracts = capped
	}

	if s.cfg.Sizing.Correlation.Enabled {
		s.applyCorrelationCap(result, in, perContract)
	}

	result.RiskDollars = float64(result.Contracts) * perContract
	result.RiskPct = result.RiskDollars / capital * 100
	result.PositionValue = float64(result.Contracts) * in.EntryPremium * 100
	result.PositionPct = result.PositionValue / capital * 100
}

// applyCorrelationCap reduces contracts when the aggregate risk of the
// ticker's correlation group would exceed the configured cap.
func (s *Sizer) applyCorrelationCap(result *models.PositionSizeResult, in Input, perContract float64) {
	group := GroupFor(in.Ticker)
	if group == "" {
		return
	}

	var existing float64
	for _, p := range in.Open {
		if GroupFor(p.Ticker) == group {
			existing += p.RiskDollars
		}
	}

	capDollars := s.cfg.Account.TotalCapital * s.cfg.Sizing.Correlation.MaxGroupRiskPct
	available := capDollars - existing
	if available <= 0 {
		if result.Contracts > 1 {
			result.Adjustments = append(result.Adjustments, models.Adjustment{
				Name:       "correlation_cap",
				Multiplier: 1.0 / float64(result.Contracts),
				Detail:     fmt.Sprintf("%s group risk already at cap, reduced to minimum size", group),
			})
			result.Contracts = 1
		}
		return
	}

	if float64(result.Contracts)*perContract > available {
		capped := int(available / perContract)
		if capped < 1 {
			capped = 1
		}
		if capped < result.Contracts {
			result.Adjustments = append(result.Adjustments, models.Adjustment{
				Name:       "correlation_cap",
				Multiplier: float64(capped) / float64(result.Contracts),
				Detail: fmt.Sprintf("%s group risk cap %.1f%%, %d -> %d contracts",
					group, s.cfg.Sizing.Correlation.MaxGroupRiskPct*100, result.Contracts, capped),
			})
			result.Contracts = capped
		}
	}
}

// kellyAdjustment computes the fractional-Kelly risk fraction from trade
// history and expresses it as a ratio to the base fraction. Neutral when
// disabled or when history is too short.
func (s *Sizer) kellyAdjustment(history []models.TradeOutcome) (float64, string, error) {
	cfg := s.cfg.Sizing.Kelly
	if !cfg.Enabled {
		return 1.0, "disabled", nil
	}
	if len(history) < cfg.MinTrades {
		return 1.0, fmt.Sprintf("insufficient history (%d of %d trades)", len(history), cfg.MinTrades), nil
	}

	var wins, losses int
	var winR, lossR float64
	for _, t := range history {
		if t.PnL > 0 {
			wins++
			winR += t.RMultiple
		} else {
			losses++
			lossR += math.Abs(t.RMultiple)
		}
	}
	if wins == 0 || losses == 0 {
		// A one-sided history has no payoff ratio; stay neutral rather
		// than size off a degenerate Kelly.
		return 1.0, fmt.Sprintf("one-sided history (%d wins, %d losses)", wins, losses), nil
	}

	avgWinR := winR / float64(wins)
	avgLossR := lossR / float64(losses)
	if avgLossR <= 0 {
		return 0, "", fmt.Errorf("average losing R is zero over %d losses", losses)
	}

	winRate := float64(wins) / float64(len(history))
	b := avgWinR / avgLossR
	kelly := winRate - (1-winRate)/b
	kelly *= cfg.Fractional

	if kelly < kellyFloor {
		kelly = kellyFloor
	}
	if kelly > kellyCeiling {
		kelly = kellyCeiling
	}

	mult := kelly / s.cfg.Sizing.BaseRiskPct
	detail := fmt.Sprintf("win rate %.0f%%, payoff %.2f, fractional kelly %.2f%%",
		winRate*100, b, kelly*100)
	return mult, detail, nil
}

// volatilityAdjustment maps IV rank through a clamped linear interpolation:
// rich IV (high rank) shrinks size, cheap IV grows it.
func (s *Sizer) volatilityAdjustment(ivRank *float64) (float64, string) {
	cfg := s.cfg.Sizing.Volatility
	if !cfg.Enabled {
		return 1.0, "disabled"
	}
	if ivRank == nil {
		return 1.0, "iv rank unavailable"
	}

	rank := *ivRank
	var mult float64
	switch {
	case rank >= cfg.HighIVThreshold:
		mult = cfg.MinMultiplier
	case rank <= cfg.LowIVThreshold:
		mult = cfg.MaxMultiplier
	default:
		// Linear between the thresholds, decreasing as rank rises.
		frac := (rank - cfg.LowIVThreshold) / (cfg.HighIVThreshold - cfg.LowIVThreshold)
		mult = cfg.MaxMultiplier + frac*(cfg.MinMultiplier-cfg.MaxMultiplier)
	}
	return mult, fmt.Sprintf("iv rank %.0f", rank)
}

// qualityAdjustment buckets the 0-100 setup score into sizing bands.
func qualityAdjustment(score float64) (float64, string) {
	var mult float64
	switch {
	case score >= 90:
		mult = 1.5
	case score >= 80:
		mult = 1.25
	case score >= 70:
		mult = 1.0
	case score >= 60:
		mult = 0.75
	default:
		mult = 0.5
	}
	return mult, fmt.Sprintf("setup score %.0f", score)
}

// equityCurveAdjustment sizes up in winning streaks and down in losing
// streaks, judged over the most recent lookback window.
func (s *Sizer) equityCurveAdjustment(history []models.TradeOutcome) (float64, string) {
	cfg := s.cfg.Sizing.EquityCurve
	if !cfg.Enabled {
		return 1.0, "disabled"
	}
	if len(history) < cfg.LookbackTrades {
		return 1.0, fmt.Sprintf("insufficient history (%d of %d trades)", len(history), cfg.LookbackTrades)
	}

	recent := history[len(history)-cfg.LookbackTrades:]
	var wins int
	var sumR float64
	for _, t := range recent {
		if t.PnL > 0 {
			wins++
		}
		sumR += t.RMultiple
	}
	winRate := float64(wins) / float64(len(recent))
	avgR := sumR / float64(len(recent))

	// Blend recent win rate with normalized average R, then interpolate
	// between the losing-streak and winning-streak multipliers.
	rScore := (avgR + 1) / 3
	if rScore < 0 {
		rScore = 0
	}
	if rScore > 1 {
		rScore = 1
	}
	score := 0.5*winRate + 0.5*rScore
	mult := cfg.MinMultiplier + score*(cfg.MaxMultiplier-cfg.MinMultiplier)
	return mult, fmt.Sprintf("recent win rate %.0f%%, avg R %.2f", winRate*100, avgR)
}

// drawdownAdjustment cuts size as account drawdown deepens.
func drawdownAdjustment(drawdownPct float64) (float64, string) {
	var mult float64
	var tier string
	switch {
	case drawdownPct < 5:
		mult, tier = 1.0, "normal"
	case drawdownPct < 10:
		mult, tier = 0.75, "caution"
	case drawdownPct < 15:
		mult, tier = 0.5, "warning"
	default:
		mult, tier = 0.25, "critical"
	}
	return mult, fmt.Sprintf("drawdown %.1f%% (%s)", drawdownPct, tier)
}

func (s *Sizer) defaultContracts() int {
	if s.cfg.Sizing.DefaultContracts > 0 {
		return s.cfg.Sizing.DefaultContracts
	}
	return 1
}

// perContractRisk is the dollar loss per contract if stopped out.
func perContractRisk(entry, stop float64) float64 {
	return (entry - stop) * 100
}
