package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var backfillMonths int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Collect recent amendment history for every monitored statute",
	Long: `Backfill fetches the revision history of every active statute and records
the revisions promulgated within the last N months (30 days per month).
Revisions already recorded are skipped, so the command can be re-run safely.

Examples:
  # Collect the last six months
  ./lawwatch backfill

  # Collect the last year
  ./lawwatch backfill --months 12`,
	Run: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().IntVarP(&backfillMonths, "months", "m", 6, "Number of months of history to collect")
}

func runBackfill(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatal("failed to start", "err", err)
	}
	defer a.Close()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	stats, err := a.newMonitor().Backfill(ctx, backfillMonths)
	if stats != nil {
		a.logger.Print("")
		a.logger.Print("=== Backfill Summary ===")
		a.logger.Printf("Laws:             %d", stats.Laws)
		a.logger.Printf("Revisions found:  %d", stats.Revisions)
		a.logger.Printf("In window:        %d", stats.InWindow)
		a.logger.Printf("Saved:            %d", stats.Saved)
		a.logger.Printf("Failed laws:      %d", stats.Failed)
	}
	if err != nil {
		a.logger.Error("backfill failed", "err", err)
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
