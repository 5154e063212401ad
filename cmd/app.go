package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/config"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/jjenkins/lawwatch/internal/store"
)

// app holds the dependencies shared by the commands
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	db         *sql.DB
	laws       *store.LawStore
	amendments *store.AmendmentStore
	tasks      *store.TaskStore
	logs       *store.LogStore
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(os.Stderr)

	logger.Info("connecting to database")
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		laws:       store.NewLawStore(db),
		amendments: store.NewAmendmentStore(db),
		tasks:      store.NewTaskStore(db),
		logs:       store.NewLogStore(db),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "err", err)
	}
}

// newMonitor wires the law API client, the analyzer and the stores
func (a *app) newMonitor() *service.Monitor {
	if a.cfg.LawAPIOC == "" {
		a.logger.Warn("LAW_API_OC is not set; the law API will likely reject requests")
	}

	client := service.NewLawClient(service.LawClientConfig{
		BaseURL: a.cfg.LawAPIBaseURL,
		OC:      a.cfg.LawAPIOC,
		Timeout: a.cfg.RequestTimeout,
	}, service.NewParser(), a.logger)

	// Left nil when no key is configured so the analyzer reports it as disabled
	var summarizer service.Summarizer
	if a.cfg.AIAPIKey != "" {
		s, err := service.NewAnthropicSummarizer(a.cfg.AIAPIKey, a.cfg.AIModel)
		if err != nil {
			a.logger.Error("AI summarization disabled", "err", err)
		} else {
			summarizer = s
		}
	} else {
		a.logger.Warn("no AI API key configured; amendments will carry a placeholder summary")
	}

	analyzer := service.NewAnalyzer(summarizer, service.NewSummaryExtractor(),
		a.cfg.DomainLabel, a.cfg.RequestTimeout, a.logger.WithPrefix("analyzer"))

	return service.NewMonitor(client, analyzer, service.Repositories{
		Laws:       a.laws,
		Amendments: a.amendments,
		Tasks:      a.tasks,
		Logs:       a.logs,
	}, a.logger.WithPrefix("monitor"), service.MonitorOptions{
		RequestTimeout: a.cfg.RequestTimeout,
		Delay:          a.cfg.RequestDelay,
	})
}

// signalContext is cancelled on the first SIGINT or SIGTERM
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Warn("received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
