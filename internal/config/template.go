package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# options-copilot configuration
# All values shown are the defaults; uncomment and edit to override.

[account]
# total_capital = 100000.0
# max_risk_per_trade = 0.05
# max_position_pct = 0.25
# max_open_positions = 5

[sizing]
# method = "composite"          # "fixed" or "composite"
# base_risk_pct = 0.02
# min_risk_pct = 0.005
# min_premium_to_consider = 0.50

[sizing.kelly]
# enabled = true
# fractional_kelly = 0.25
# min_trades_for_kelly = 30

[sizing.volatility]
# enabled = true
# min_multiplier = 0.5
# max_multiplier = 1.5
# high_iv_threshold = 70.0
# low_iv_threshold = 30.0

[sizing.equity_curve]
# enabled = true
# lookback_trades = 10
# min_multiplier = 0.5
# max_multiplier = 1.3

[sizing.correlation]
# enabled = true
# max_correlated_risk_pct = 0.06

[stops]
# default_pct = 0.50
# max_loss_per_contract = 500.0

[stops.atr]
# period = 14

[targets]
# profit_target_r = 2.0
# runner_activation_r = 3.0
# max_runner_target_r = 5.0

[ode]
# stop_pct = 0.30
# profit_target_r = 1.5
# min_premium_to_consider = 0.20

[partial_exits]
# scaling_method = "technical_weighted"   # technical_weighted, r_based, equal_thirds
# t1_contracts_pct = 0.40
# t2_contracts_pct = 0.30
# runner_contracts_pct = 0.30

[trailing_stops]
# atr_initial_multiplier = 1.5
# atr_mid_multiplier = 2.0
# atr_high_multiplier = 2.5
# min_distance_from_entry = 0.5
# breakeven_r_trigger = 2.0

[backtest]
# lookback_years = 2
# otm_pct_max = 0.02
# pop_min = 0.50
# rv_rank_max = 60.0
# atr_rr_min = 2.0
# dte_approx = 21
# max_holding_days = 30
# risk_free_rate = 0.0367

[market_data]
# provider = "file"             # "file" or "polygon"
# cache_dir = "~/.config/options-copilot/data"
# polygon_api_key = ""          # or env POLYGON_API_KEY

[advisor]
# enabled = true
# model = "gpt-4o-mini"
# openai_api_key = ""           # or env OPENAI_API_KEY

[journal]
# path = "~/.config/options-copilot/journal.csv"
`

// writeTemplate writes a commented template config file so a first run
// leaves the user something to edit.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0o644)
}
