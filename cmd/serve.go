package cmd

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jjenkins/lawwatch/internal/handlers"
	"github.com/jjenkins/lawwatch/internal/scheduler"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/jjenkins/lawwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	port          string
	noScheduler   bool
	skipMigration bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the amendment monitor web server and daily scheduler",
	Long: `Start the HTTP API and dashboard, and run the amendment check on the
CHECK_SCHEDULE cron spec (daily at 09:00 by default).`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			log.Fatal("failed to start", "err", err)
		}
		defer a.Close()

		// Use PORT env var if set, otherwise use flag value
		if !cmd.Flags().Changed("port") {
			port = a.cfg.Port
		}

		if !skipMigration {
			if err := store.Migrate(context.Background(), a.db); err != nil {
				a.logger.Fatal("migration failed", "err", err)
			}
		}

		monitor := a.newMonitor()
		metrics := service.NewMetricsService(a.db)

		if !noScheduler {
			sched, err := scheduler.New(a.cfg.CheckSchedule, monitor, a.logger)
			if err != nil {
				a.logger.Fatal("failed to create scheduler", "err", err)
			}
			sched.Start()
			defer sched.Stop()
		}

		app := fiber.New(fiber.Config{
			AppName: "Law Amendment Monitor",
			// Manual checks walk every statute sequentially
			WriteTimeout: 30 * time.Minute,
		})

		app.Use(logger.New())

		// Routes
		app.Get("/", handlers.HomeHandler(metrics, a.amendments, a.logger))
		app.Get("/health", handlers.HealthHandler(a.db, handlers.HealthInfo{
			LawAPIConfigured: a.cfg.LawAPIOC != "",
			AIConfigured:     a.cfg.AIAPIKey != "",
		}))

		api := app.Group("/api")

		// Monitored law routes
		api.Get("/monitored-laws", handlers.LawsHandler(a.laws))
		api.Get("/monitored-laws/:id", handlers.LawDetailHandler(a.laws))
		api.Post("/monitored-laws", handlers.CreateLawHandler(a.laws))
		api.Delete("/monitored-laws/:id", handlers.DeleteLawHandler(a.laws))

		// Amendment routes
		api.Get("/amendments", handlers.AmendmentsHandler(a.amendments))
		api.Get("/amendments/:id", handlers.AmendmentDetailHandler(a.amendments))
		api.Post("/amendments/:id/mark-read", handlers.MarkReadHandler(a.amendments))
		api.Get("/amendments/:id/tasks", handlers.AmendmentTasksHandler(a.tasks))

		// Manual trigger accepts GET for convenience
		check := handlers.CheckHandler(monitor, a.logger)
		api.Get("/check-amendments", check)
		api.Post("/check-amendments", check)

		api.Get("/stats", handlers.StatsHandler(metrics))
		api.Get("/logs", handlers.LogsHandler(a.logs))

		ctx, cancel := signalContext(a.logger)
		defer cancel()
		go func() {
			<-ctx.Done()
			if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
				a.logger.Error("server shutdown failed", "err", err)
			}
		}()

		a.logger.Info("starting server", "port", port)
		if err := app.Listen(":" + port); err != nil {
			a.logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve the API without the daily check")
	serveCmd.Flags().BoolVar(&skipMigration, "skip-migrate", false, "Do not apply schema migrations on startup")
}
