// Package cli provides the command-line interface for the trading copilot.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-copilot/internal/advisor"
	"options-copilot/internal/config"
	"options-copilot/internal/journal"
	"options-copilot/internal/marketdata"
	"options-copilot/internal/parser"
	"options-copilot/internal/plan"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies shared by the commands.
type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Parser       *parser.Parser
	Orchestrator *plan.Orchestrator
	Journal      *journal.Journal
	Advisor      *advisor.Advisor
	MarketData   marketdata.Provider
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:       cfg,
		Logger:       logger,
		Parser:       parser.NewParser(),
		Orchestrator: plan.NewOrchestrator(cfg, logger),
		Journal:      journal.New(cfg.Journal.Path, logger),
		Advisor:      advisor.New(cfg, logger),
	}

	cache := marketdata.NewFileProvider(cfg.MarketData.CacheDir)
	if cfg.MarketData.Provider == "polygon" && cfg.MarketData.PolygonAPIKey != "" {
		app.MarketData = marketdata.NewPolygonProvider(cfg.MarketData.BaseURL, cfg.MarketData.PolygonAPIKey, cache, logger)
		logger.Debug().Msg("Polygon market data provider initialized")
	} else {
		app.MarketData = cache
		logger.Debug().Str("dir", cfg.MarketData.CacheDir).Msg("File market data provider initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "copilot",
		Short: "Options Copilot - quantified risk plans for discretionary options trades",
		Long: `Options Copilot turns a trade alert into a quantified plan: position
size, stop loss, profit targets, partial exits, and a deterministic
go/no-go decision, plus walk-forward backtests of the same rules.

Use 'copilot help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(
		newAnalyzeCmd(app),
		newBacktestCmd(app),
		newJournalCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "copilot %s (built %s)\n", Version, BuildDate)
		},
	}
}
