package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"options-copilot/internal/models"
	"options-copilot/internal/report"
)

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and update the trade journal",
	}

	cmd.AddCommand(
		newJournalShowCmd(app),
		newJournalSummaryCmd(app),
		newJournalCloseCmd(app),
	)
	return cmd
}

func newJournalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List journaled trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			entries, err := app.Journal.All()
			if err != nil {
				return err
			}
			if out.IsJSON() {
				return out.JSON(entries)
			}
			report.Journal(out.Writer(), entries)
			return nil
		},
	}
}

func newJournalSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Aggregate journal statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			entries, err := app.Journal.All()
			if err != nil {
				return err
			}
			if out.IsJSON() {
				return out.JSON(entries)
			}
			report.Summary(out.Writer(), entries)
			return nil
		},
	}
}

func newJournalCloseCmd(app *App) *cobra.Command {
	var (
		exitPremium float64
		reason      string
	)

	cmd := &cobra.Command{
		Use:   "close ID",
		Short: "Close a journaled trade with its exit",
		Example: `  copilot journal close 3f2a9c1b --exit 3.75 --reason target
  copilot journal close 3f2a9c1b --exit 1.25 --reason stop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			var exitReason models.ExitReason
			switch strings.ToLower(reason) {
			case "stop":
				exitReason = models.ExitStop
			case "target":
				exitReason = models.ExitTarget
			case "expiry":
				exitReason = models.ExitExpiry
			default:
				return fmt.Errorf("--reason must be stop, target, or expiry, got %q", reason)
			}
			if exitPremium < 0 {
				return fmt.Errorf("--exit must be non-negative")
			}

			id, err := app.resolveJournalID(args[0])
			if err != nil {
				return err
			}

			entry, err := app.Journal.Close(id, exitPremium, exitReason)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(entry)
			}
			shown := entry.ID
			if len(shown) > 8 {
				shown = shown[:8]
			}
			fmt.Fprintf(out.Writer(), "Closed %s %s: P/L $%.2f (%.2fR)\n",
				entry.Ticker, shown, entry.PnL, entry.RMultiple)
			return nil
		},
	}

	cmd.Flags().Float64Var(&exitPremium, "exit", 0, "exit premium")
	cmd.Flags().StringVar(&reason, "reason", "", "exit reason: stop, target, or expiry")
	cmd.MarkFlagRequired("exit")
	cmd.MarkFlagRequired("reason")

	return cmd
}

// resolveJournalID expands a unique id prefix to the full row id.
func (app *App) resolveJournalID(prefix string) (string, error) {
	entries, err := app.Journal.All()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return prefix, nil // let Close report not-found
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d trades, use more characters", prefix, len(matches))
	}
}
