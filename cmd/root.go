package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lawwatch",
	Short: "Statute amendment monitor",
	Long: `lawwatch watches a list of statutes in the national law information API,
records every newly promulgated amendment with an AI summary and follow-up tasks,
and serves the results over a small HTTP API and dashboard.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
