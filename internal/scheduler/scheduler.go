package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/robfig/cron/v3"
)

// Runner is the batch job triggered on schedule
type Runner interface {
	RunAll(ctx context.Context) (*service.RunStats, error)
}

// Scheduler triggers the amendment check on a cron schedule.
// A run still in progress causes the next tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *log.Logger
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// New registers runner under the standard five-field cron spec
func New(spec string, runner Runner, logger *log.Logger) (*Scheduler, error) {
	logger = logger.WithPrefix("scheduler")
	cronLogger := cronLogAdapter{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register schedule %q: %w", spec, err)
	}
	s.entryID = id

	return s, nil
}

// Start begins firing in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "next", s.Next().Format(time.RFC3339))
}

// Stop cancels any running check and waits for it to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Next is the time of the next scheduled run, zero before Start
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// run only logs the outcome; the monitor has already written the audit log
func (s *Scheduler) run() {
	s.logger.Info("scheduled amendment check starting")

	stats, err := s.runner.RunAll(s.ctx)
	if err != nil {
		s.logger.Error("scheduled amendment check failed", "err", err)
		return
	}

	s.logger.Info("scheduled amendment check finished",
		"changed", stats.Changed, "failed", stats.Failed, "duration", stats.Duration.Round(time.Millisecond))
}

// cronLogAdapter routes cron's internal logging to the structured logger
type cronLogAdapter struct {
	logger *log.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "err", err)...)
}
