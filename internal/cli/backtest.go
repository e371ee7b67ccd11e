package cli

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"options-copilot/internal/backtest"
	"options-copilot/internal/logging"
	"options-copilot/internal/models"
	"options-copilot/internal/report"
)

func newBacktestCmd(app *App) *cobra.Command {
	var lookbackYears int

	cmd := &cobra.Command{
		Use:   "backtest TICKER [TICKER...]",
		Short: "Backtest the entry rules against historical daily bars",
		Example: `  copilot backtest SPY
  copilot backtest SPY QQQ AAPL --lookback 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			years := lookbackYears
			if years <= 0 {
				years = app.Config.Backtest.LookbackYears
			}
			to := time.Now().UTC()
			from := to.AddDate(-years, 0, 0)

			engine := backtest.NewEngine(app.Config, app.Logger)

			// Tickers share no state; fan out one goroutine per ticker.
			var mu sync.Mutex
			results := make(map[string]models.BacktestResult, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			logger := logging.FromContext(cmd.Context())
			for _, arg := range args {
				ticker := strings.ToUpper(arg)
				g.Go(func() error {
					tlog := logging.WithTicker(logger, ticker)
					start := time.Now()
					bars, err := app.MarketData.DailyBars(ctx, ticker, from, to)
					if err != nil {
						// Missing data degrades to a zero result for that
						// ticker, not a failed run.
						tlog.Warn().Err(err).Msg("No history, skipping ticker")
						bars = nil
					}
					result := engine.Run(ticker, bars)
					logging.LogBacktest(tlog, &result, time.Since(start))
					mu.Lock()
					results[ticker] = result
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			tickers := make([]string, 0, len(results))
			for ticker := range results {
				tickers = append(tickers, ticker)
			}
			sort.Strings(tickers)

			if out.IsJSON() {
				ordered := make([]models.BacktestResult, 0, len(tickers))
				for _, ticker := range tickers {
					ordered = append(ordered, results[ticker])
				}
				return out.JSON(ordered)
			}

			for _, ticker := range tickers {
				result := results[ticker]
				report.Backtest(out.Writer(), &result)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&lookbackYears, "lookback", 0, "years of history (default from config)")

	return cmd
}
