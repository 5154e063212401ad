package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/config"
	"github.com/jjenkins/lawwatch/internal/store"
	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("failed to load config", "err", err)
		}
		logger := cfg.NewLogger(cmd.ErrOrStderr())

		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "err", err)
		}
		defer db.Close()

		ctx := context.Background()
		if migrateStatus {
			if err := store.MigrationStatus(ctx, db); err != nil {
				logger.Fatal("failed to read migration status", "err", err)
			}
			return
		}

		if err := store.Migrate(ctx, db); err != nil {
			logger.Fatal("migration failed", "err", err)
		}
		logger.Info("database schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print migration status instead of applying")
}
