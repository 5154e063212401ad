package cmd

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every monitored statute for new amendments",
	Long: `Check runs one amendment check over all active statutes.

For each statute the law API is searched by name; when the promulgation date of
the first result is newer than the last recorded one, the amendment detail is
fetched, summarized, stored with its follow-up tasks, and the statute's last
amendment date is advanced. A failure on one statute is logged and the run moves on.

Examples:
  # Run a check now
  ./lawwatch check

  # Run with debug logging
  LOG_LEVEL=debug ./lawwatch check`,
	Run: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatal("failed to start", "err", err)
	}
	defer a.Close()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	monitor := a.newMonitor()

	stats, err := monitor.RunAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			a.logger.Warn("check cancelled")
			if stats != nil {
				monitor.PrintSummary(stats)
			}
			os.Exit(1)
		}
		if errors.Is(err, service.ErrBatchFatal) {
			a.logger.Error("check aborted", "err", err)
			os.Exit(2)
		}
		a.logger.Error("check failed", "err", err)
		os.Exit(1)
	}
	monitor.PrintSummary(stats)

	// Exit with error code if there were failures
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
