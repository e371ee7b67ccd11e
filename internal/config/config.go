// Package config provides configuration management for the trading engine.
// All values are loaded once and passed explicitly into component
// constructors; there is no package-level configuration state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"options-copilot/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Account      AccountConfig      `mapstructure:"account"`
	Sizing       SizingConfig       `mapstructure:"sizing"`
	Stops        StopsConfig        `mapstructure:"stops"`
	Targets      TargetsConfig      `mapstructure:"targets"`
	ODE          ODEConfig          `mapstructure:"ode"`
	PartialExits PartialExitsConfig `mapstructure:"partial_exits"`
	Trailing     TrailingConfig     `mapstructure:"trailing_stops"`
	Backtest     BacktestConfig     `mapstructure:"backtest"`
	MarketData   MarketDataConfig   `mapstructure:"market_data"`
	Advisor      AdvisorConfig      `mapstructure:"advisor"`
	Journal      JournalConfig      `mapstructure:"journal"`
}

// AccountConfig holds capital and per-trade risk limits.
type AccountConfig struct {
	TotalCapital     float64 `mapstructure:"total_capital"`
	MaxRiskPerTrade  float64 `mapstructure:"max_risk_per_trade"` // fraction
	MaxPositionPct   float64 `mapstructure:"max_position_pct"`   // fraction of capital
	MaxOpenPositions int     `mapstructure:"max_open_positions"`
}

// SizingConfig holds position-sizing configuration.
type SizingConfig struct {
	Method           string            `mapstructure:"method"` // "fixed" or "composite"
	BaseRiskPct      float64           `mapstructure:"base_risk_pct"`
	MinRiskPct       float64           `mapstructure:"min_risk_pct"`
	MinPremium       float64           `mapstructure:"min_premium_to_consider"`
	DefaultContracts int               `mapstructure:"default_contracts"`
	Kelly            KellyConfig       `mapstructure:"kelly"`
	Volatility       VolatilityConfig  `mapstructure:"volatility"`
	EquityCurve      EquityCurveConfig `mapstructure:"equity_curve"`
	Correlation      CorrelationConfig `mapstructure:"correlation"`
}

// KellyConfig controls the Kelly-criterion sizing adjustment.
type KellyConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Fractional float64 `mapstructure:"fractional_kelly"`
	MinTrades  int     `mapstructure:"min_trades_for_kelly"`
}

// VolatilityConfig controls the IV-rank sizing adjustment.
type VolatilityConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MinMultiplier   float64 `mapstructure:"min_multiplier"`
	MaxMultiplier   float64 `mapstructure:"max_multiplier"`
	HighIVThreshold float64 `mapstructure:"high_iv_threshold"`
	LowIVThreshold  float64 `mapstructure:"low_iv_threshold"`
}

// EquityCurveConfig controls the recent-performance sizing adjustment.
type EquityCurveConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	LookbackTrades int     `mapstructure:"lookback_trades"`
	MinMultiplier  float64 `mapstructure:"min_multiplier"`
	MaxMultiplier  float64 `mapstructure:"max_multiplier"`
}

// CorrelationConfig controls the correlation-group risk cap.
type CorrelationConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MaxGroupRiskPct float64 `mapstructure:"max_correlated_risk_pct"` // fraction
}

// StopsConfig holds stop-loss configuration.
type StopsConfig struct {
	DefaultPct         float64   `mapstructure:"default_pct"` // fraction of premium
	MaxLossPerContract float64   `mapstructure:"max_loss_per_contract"`
	ATR                ATRConfig `mapstructure:"atr"`
}

// ATRConfig holds ATR calculation settings.
type ATRConfig struct {
	Period int `mapstructure:"period"`
}

// TargetsConfig holds profit-target configuration.
type TargetsConfig struct {
	ProfitTargetR     float64 `mapstructure:"profit_target_r"`
	RunnerActivationR float64 `mapstructure:"runner_activation_r"`
	MaxRunnerTargetR  float64 `mapstructure:"max_runner_target_r"`
}

// ODEConfig holds same-day (0DTE) overrides. 0DTE trades decay fast, so
// stops are tighter and the premium floor is looser.
type ODEConfig struct {
	StopPct       float64 `mapstructure:"stop_pct"`
	ProfitTargetR float64 `mapstructure:"profit_target_r"`
	MinPremium    float64 `mapstructure:"min_premium_to_consider"`
}

// PartialExitsConfig holds partial-exit ladder configuration.
type PartialExitsConfig struct {
	ScalingMethod string  `mapstructure:"scaling_method"` // technical_weighted, r_based, equal_thirds
	T1Pct         float64 `mapstructure:"t1_contracts_pct"`
	T2Pct         float64 `mapstructure:"t2_contracts_pct"`
	RunnerPct     float64 `mapstructure:"runner_contracts_pct"`
}

// TrailingConfig holds trailing-stop configuration.
type TrailingConfig struct {
	ATRInitialMult   float64 `mapstructure:"atr_initial_multiplier"`
	ATRMidMult       float64 `mapstructure:"atr_mid_multiplier"`
	ATRHighMult      float64 `mapstructure:"atr_high_multiplier"`
	MinDistancePct   float64 `mapstructure:"min_distance_from_entry"` // percent
	BreakevenTrigger float64 `mapstructure:"breakeven_r_trigger"`
}

// BacktestConfig holds backtest simulator configuration.
type BacktestConfig struct {
	LookbackYears  int     `mapstructure:"lookback_years"`
	OTMPctMax      float64 `mapstructure:"otm_pct_max"`
	PoPMin         float64 `mapstructure:"pop_min"`
	RVRankMax      float64 `mapstructure:"rv_rank_max"`
	ATRRRMin       float64 `mapstructure:"atr_rr_min"`
	DTEApprox      int     `mapstructure:"dte_approx"`
	MaxHoldingDays int     `mapstructure:"max_holding_days"`
	TargetR        float64 `mapstructure:"target_r"`
	StopPct        float64 `mapstructure:"stop_pct"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`
}

// MarketDataConfig holds market data provider configuration.
type MarketDataConfig struct {
	Provider      string `mapstructure:"provider"` // "file" or "polygon"
	CacheDir      string `mapstructure:"cache_dir"`
	BaseURL       string `mapstructure:"base_url"`
	PolygonAPIKey string `mapstructure:"polygon_api_key"`
}

// AdvisorConfig holds LLM advisor configuration.
type AdvisorConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Model        string `mapstructure:"model"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// JournalConfig holds trade journal configuration.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-copilot"
	}
	return filepath.Join(home, ".config", "options-copilot")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A template config file is
// written on first run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("writing template config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a fully-populated in-memory configuration, used by tests
// and by callers that do not read a config file.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// Defaults are statically known; unmarshal cannot fail on them.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("account.total_capital", 100000.0)
	v.SetDefault("account.max_risk_per_trade", 0.05)
	v.SetDefault("account.max_position_pct", 0.25)
	v.SetDefault("account.max_open_positions", 5)

	v.SetDefault("sizing.method", "composite")
	v.SetDefault("sizing.base_risk_pct", 0.02)
	v.SetDefault("sizing.min_risk_pct", 0.005)
	v.SetDefault("sizing.min_premium_to_consider", 0.50)
	v.SetDefault("sizing.default_contracts", 1)
	v.SetDefault("sizing.kelly.enabled", true)
	v.SetDefault("sizing.kelly.fractional_kelly", 0.25)
	v.SetDefault("sizing.kelly.min_trades_for_kelly", 30)
	v.SetDefault("sizing.volatility.enabled", true)
	v.SetDefault("sizing.volatility.min_multiplier", 0.5)
	v.SetDefault("sizing.volatility.max_multiplier", 1.5)
	v.SetDefault("sizing.volatility.high_iv_threshold", 70.0)
	v.SetDefault("sizing.volatility.low_iv_threshold", 30.0)
	v.SetDefault("sizing.equity_curve.enabled", true)
	v.SetDefault("sizing.equity_curve.lookback_trades", 10)
	v.SetDefault("sizing.equity_curve.min_multiplier", 0.5)
	v.SetDefault("sizing.equity_curve.max_multiplier", 1.3)
	v.SetDefault("sizing.correlation.enabled", true)
	v.SetDefault("sizing.correlation.max_correlated_risk_pct", 0.06)

	v.SetDefault("stops.default_pct", 0.50)
	v.SetDefault("stops.max_loss_per_contract", 500.0)
	v.SetDefault("stops.atr.period", 14)

	v.SetDefault("targets.profit_target_r", 2.0)
	v.SetDefault("targets.runner_activation_r", 3.0)
	v.SetDefault("targets.max_runner_target_r", 5.0)

	v.SetDefault("ode.stop_pct", 0.30)
	v.SetDefault("ode.profit_target_r", 1.5)
	v.SetDefault("ode.min_premium_to_consider", 0.20)

	v.SetDefault("partial_exits.scaling_method", "technical_weighted")
	v.SetDefault("partial_exits.t1_contracts_pct", 0.40)
	v.SetDefault("partial_exits.t2_contracts_pct", 0.30)
	v.SetDefault("partial_exits.runner_contracts_pct", 0.30)

	v.SetDefault("trailing_stops.atr_initial_multiplier", 1.5)
	v.SetDefault("trailing_stops.atr_mid_multiplier", 2.0)
	v.SetDefault("trailing_stops.atr_high_multiplier", 2.5)
	v.SetDefault("trailing_stops.min_distance_from_entry", 0.5)
	v.SetDefault("trailing_stops.breakeven_r_trigger", 2.0)

	v.SetDefault("backtest.lookback_years", 2)
	v.SetDefault("backtest.otm_pct_max", 0.02)
	v.SetDefault("backtest.pop_min", 0.50)
	v.SetDefault("backtest.rv_rank_max", 60.0)
	v.SetDefault("backtest.atr_rr_min", 2.0)
	v.SetDefault("backtest.dte_approx", 21)
	v.SetDefault("backtest.max_holding_days", 30)
	v.SetDefault("backtest.target_r", 2.0)
	v.SetDefault("backtest.stop_pct", 0.50)
	v.SetDefault("backtest.risk_free_rate", 0.0367)

	v.SetDefault("market_data.provider", "file")
	v.SetDefault("market_data.cache_dir", filepath.Join(configDir, "data"))
	v.SetDefault("market_data.base_url", "https://api.polygon.io")

	v.SetDefault("advisor.enabled", true)
	v.SetDefault("advisor.model", "gpt-4o-mini")

	v.SetDefault("journal.path", filepath.Join(configDir, "journal.csv"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.MarketData.PolygonAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Advisor.OpenAIAPIKey = v
	}
	if v := os.Getenv("COPILOT_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("ACCOUNT_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil && capital > 0 {
			cfg.Account.TotalCapital = capital
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Account.TotalCapital <= 0 {
		return fmt.Errorf("%w: account.total_capital must be positive", errors.ErrConfigInvalid)
	}
	if c.Account.MaxRiskPerTrade <= 0 || c.Account.MaxRiskPerTrade > 1 {
		return fmt.Errorf("%w: account.max_risk_per_trade must be a fraction in (0, 1]", errors.ErrConfigInvalid)
	}
	if c.Account.MaxPositionPct <= 0 || c.Account.MaxPositionPct > 1 {
		return fmt.Errorf("%w: account.max_position_pct must be a fraction in (0, 1]", errors.ErrConfigInvalid)
	}
	if c.Sizing.Method != "fixed" && c.Sizing.Method != "composite" {
		return fmt.Errorf("%w: sizing.method must be 'fixed' or 'composite', got %q", errors.ErrConfigInvalid, c.Sizing.Method)
	}
	if c.Sizing.BaseRiskPct <= 0 || c.Sizing.BaseRiskPct > c.Account.MaxRiskPerTrade {
		return fmt.Errorf("%w: sizing.base_risk_pct must be in (0, max_risk_per_trade]", errors.ErrConfigInvalid)
	}
	if c.Stops.DefaultPct <= 0 || c.Stops.DefaultPct >= 1 {
		return fmt.Errorf("%w: stops.default_pct must be a fraction in (0, 1)", errors.ErrConfigInvalid)
	}
	if c.ODE.StopPct <= 0 || c.ODE.StopPct >= 1 {
		return fmt.Errorf("%w: ode.stop_pct must be a fraction in (0, 1)", errors.ErrConfigInvalid)
	}
	if c.Targets.ProfitTargetR <= 0 {
		return fmt.Errorf("%w: targets.profit_target_r must be positive", errors.ErrConfigInvalid)
	}
	switch c.PartialExits.ScalingMethod {
	case "technical_weighted", "r_based", "equal_thirds":
	default:
		return fmt.Errorf("%w: partial_exits.scaling_method must be technical_weighted, r_based, or equal_thirds, got %q", errors.ErrConfigInvalid, c.PartialExits.ScalingMethod)
	}
	if c.Backtest.LookbackYears < 1 {
		return fmt.Errorf("%w: backtest.lookback_years must be at least 1", errors.ErrConfigInvalid)
	}
	if c.Backtest.PoPMin < 0 || c.Backtest.PoPMin > 1 {
		return fmt.Errorf("%w: backtest.pop_min must be a fraction in [0, 1]", errors.ErrConfigInvalid)
	}
	if c.Backtest.RVRankMax < 0 || c.Backtest.RVRankMax > 100 {
		return fmt.Errorf("%w: backtest.rv_rank_max must be in [0, 100]", errors.ErrConfigInvalid)
	}
	return nil
}
