package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/model"
)

const (
	maxTasksPerAmendment = 5
	maxTaskTitleLength   = 200
	taskDueOffset        = 30 * 24 * time.Hour
	defaultAssignee      = "담당자"
)

// LawLookup is the remote legal-text API
type LawLookup interface {
	Search(ctx context.Context, name string) ([]model.LawRecord, error)
	FetchDetail(ctx context.Context, lawID string) (model.LawRecord, error)
	FetchRevisionHistory(ctx context.Context, lawID string) ([]model.LawRecord, error)
}

// LawRepository reads monitored statutes and records check progress
type LawRepository interface {
	ListActive(ctx context.Context) ([]model.MonitoredLaw, error)
	UpdateLastCheckDate(ctx context.Context, lawCode string, checkedAt time.Time) error
	UpdateLastAmendmentDate(ctx context.Context, lawCode string, date time.Time) error
}

// AmendmentRepository is the two-step duplicate guard: Exists, then Insert.
// Insert reports false when the (law code, date) pair was recorded in between.
type AmendmentRepository interface {
	Exists(ctx context.Context, lawCode string, date time.Time) (bool, error)
	Insert(ctx context.Context, a *model.Amendment) (bool, error)
}

// TaskRepository stores follow-up tasks
type TaskRepository interface {
	Insert(ctx context.Context, t *model.FollowUpTask) error
}

// LogRepository appends monitoring audit entries
type LogRepository interface {
	Append(ctx context.Context, entry *model.MonitoringLog) error
}

// Repositories groups the stores the monitor writes to
type Repositories struct {
	Laws       LawRepository
	Amendments AmendmentRepository
	Tasks      TaskRepository
	Logs       LogRepository
}

// MonitorOptions tunes remote-call pacing
type MonitorOptions struct {
	// RequestTimeout bounds every remote call (search, detail, history)
	RequestTimeout time.Duration
	// Delay is the pause between statutes in a batch
	Delay time.Duration
	// Now overrides the clock, for tests
	Now func() time.Time
}

// Outcome is the terminal state of one statute check
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeNoChange
	OutcomeNewAmendment
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNoChange:
		return "no-change"
	case OutcomeNewAmendment:
		return "new-amendment"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CheckResult describes what CheckLaw did for one statute
type CheckResult struct {
	Outcome       Outcome
	AmendmentDate time.Time
	AmendmentID   int64 // zero unless a record was inserted
	TasksCreated  int
}

// RunStats tracks batch statistics
type RunStats struct {
	Total     int
	Changed   int
	Unchanged int
	Skipped   int
	Failed    int
	Persisted int
	Duration  time.Duration
}

// Monitor detects new amendments of monitored statutes and records them.
// Statutes are processed one at a time.
type Monitor struct {
	lookup   LawLookup
	analyzer *Analyzer
	repos    Repositories
	logger   *log.Logger
	opts     MonitorOptions
}

// NewMonitor creates a new Monitor
func NewMonitor(lookup LawLookup, analyzer *Analyzer, repos Repositories, logger *log.Logger, opts MonitorOptions) *Monitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		lookup:   lookup,
		analyzer: analyzer,
		repos:    repos,
		logger:   logger,
		opts:     opts,
	}
}

// RunAll checks every active statute and writes one audit entry for the run.
// Per-statute failures are logged and counted; only a failure to list the
// statutes aborts the run (ErrBatchFatal).
func (m *Monitor) RunAll(ctx context.Context) (*RunStats, error) {
	started := time.Now()
	stats := &RunStats{}

	laws, err := m.repos.Laws.ListActive(ctx)
	if err != nil {
		m.logger.Error("failed to list monitored laws", "err", err)
		m.appendLog(ctx, &model.MonitoringLog{
			LawCode:      model.LogScopeAll,
			Status:       model.LogStatusError,
			ErrorMessage: sql.NullString{String: err.Error(), Valid: true},
		})
		return nil, fmt.Errorf("%w: failed to list monitored laws: %v", ErrBatchFatal, err)
	}

	stats.Total = len(laws)
	m.logger.Info("starting amendment check", "laws", stats.Total)

	for idx, law := range laws {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		progress := fmt.Sprintf("[%d/%d]", idx+1, stats.Total)
		m.logger.Info(progress+" checking", "law", law.LawName, "code", law.LawCode)

		result, err := m.CheckLaw(ctx, law)
		if err != nil {
			m.logger.Error(progress+" check failed", "code", law.LawCode, "err", err)
			stats.Failed++
			m.appendLog(ctx, &model.MonitoringLog{
				LawCode:      law.LawCode,
				Status:       model.LogStatusError,
				ErrorMessage: sql.NullString{String: err.Error(), Valid: true},
			})
			continue
		}

		switch result.Outcome {
		case OutcomeNewAmendment:
			stats.Changed++
			if result.AmendmentID != 0 {
				stats.Persisted++
			}
			m.logger.Info(progress+" new amendment", "code", law.LawCode,
				"date", result.AmendmentDate.Format(time.DateOnly), "tasks", result.TasksCreated)
		case OutcomeNoChange:
			stats.Unchanged++
		case OutcomeSkipped:
			stats.Skipped++
		}

		if idx < len(laws)-1 && m.opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(m.opts.Delay):
			}
		}
	}

	stats.Duration = time.Since(started)
	m.appendLog(ctx, &model.MonitoringLog{
		LawCode:         model.LogScopeAll,
		Status:          model.LogStatusSuccess,
		ChangesDetected: stats.Changed > 0,
		ExecutionTimeMs: sql.NullInt64{Int64: stats.Duration.Milliseconds(), Valid: true},
	})

	return stats, nil
}

// CheckLaw runs change detection for one statute:
// search, compare the first result's promulgation date, and on a newer date
// fetch the detail, persist it behind the duplicate guard and advance the
// statute's last amendment date.
func (m *Monitor) CheckLaw(ctx context.Context, law model.MonitoredLaw) (*CheckResult, error) {
	records, err := m.search(ctx, law.LawName)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", law.LawName, err)
	}

	if len(records) == 0 {
		m.logger.Warn("no search result", "law", law.LawName)
		return m.finish(ctx, law, &CheckResult{Outcome: OutcomeSkipped})
	}

	candidate := records[0]
	rawDate := strings.TrimSpace(candidate.Value(model.FieldPromulgationDate))
	if rawDate == "" {
		m.logger.Warn("search result has no promulgation date", "law", law.LawName)
		return m.finish(ctx, law, &CheckResult{Outcome: OutcomeNoChange})
	}

	current := calendarDate(ParseDateBestEffort(rawDate, m.opts.Now()))
	if law.LastAmendmentDate.Valid && !isAfterDay(current, law.LastAmendmentDate.Time) {
		return m.finish(ctx, law, &CheckResult{Outcome: OutcomeNoChange, AmendmentDate: current})
	}

	result := &CheckResult{Outcome: OutcomeNewAmendment, AmendmentDate: current}

	if lawID, ok := candidate.Get(model.FieldLawID); ok && lawID != "" {
		detail, err := m.fetchDetail(ctx, lawID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch detail for %s: %w", law.LawCode, err)
		}
		if detail != nil {
			amendment, tasks, err := m.saveAmendment(ctx, law, detail, current)
			if err != nil {
				return nil, err
			}
			if amendment != nil {
				result.AmendmentID = amendment.ID
				result.TasksCreated = tasks
			}
		}
	}

	if err := m.repos.Laws.UpdateLastAmendmentDate(ctx, law.LawCode, current); err != nil {
		return nil, fmt.Errorf("%w: failed to update last amendment date for %s: %v", ErrStorage, law.LawCode, err)
	}

	return m.finish(ctx, law, result)
}

// finish records the check time for a statute that was processed without error
func (m *Monitor) finish(ctx context.Context, law model.MonitoredLaw, result *CheckResult) (*CheckResult, error) {
	if err := m.repos.Laws.UpdateLastCheckDate(ctx, law.LawCode, m.opts.Now()); err != nil {
		return nil, fmt.Errorf("%w: failed to update last check date for %s: %v", ErrStorage, law.LawCode, err)
	}
	return result, nil
}

// saveAmendment inserts an amendment built from record unless one already exists
// for the same statute and promulgation date, then derives its follow-up tasks.
// It returns a nil amendment for duplicates.
func (m *Monitor) saveAmendment(ctx context.Context, law model.MonitoredLaw, record model.LawRecord, fallbackDate time.Time) (*model.Amendment, int, error) {
	amendmentDate := fallbackDate
	if raw := strings.TrimSpace(record.Value(model.FieldPromulgationDate)); raw != "" {
		amendmentDate = calendarDate(ParseDateBestEffort(raw, m.opts.Now()))
	}

	exists, err := m.repos.Amendments.Exists(ctx, law.LawCode, amendmentDate)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to check existing amendment for %s: %v", ErrStorage, law.LawCode, err)
	}
	if exists {
		m.logger.Info("amendment already recorded", "code", law.LawCode, "date", amendmentDate.Format(time.DateOnly))
		return nil, 0, nil
	}

	content := record.Value(model.FieldContent)
	analysis := m.analyzer.Analyze(ctx, law.LawName, content)

	amendment := &model.Amendment{
		LawCode:        law.LawCode,
		AmendmentDate:  amendmentDate,
		AmendmentNo:    nullString(record.Value(model.FieldAmendmentNo)),
		AmendmentType:  nullString(firstNonEmpty(record.Value(model.FieldAmendmentType), record.Value(model.FieldLawType))),
		OriginalText:   content,
		Summary:        analysis.Summary,
		ImpactAnalysis: analysis.Impact,
	}
	if raw := strings.TrimSpace(record.Value(model.FieldEnforcementDate)); raw != "" {
		amendment.EnforcementDate = sql.NullTime{Time: calendarDate(ParseDateBestEffort(raw, m.opts.Now())), Valid: true}
	}

	inserted, err := m.repos.Amendments.Insert(ctx, amendment)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to insert amendment for %s: %v", ErrStorage, law.LawCode, err)
	}
	if !inserted {
		m.logger.Warn("amendment recorded concurrently", "code", law.LawCode, "date", amendmentDate.Format(time.DateOnly))
		return nil, 0, nil
	}

	return amendment, m.createTasks(ctx, amendment.ID, analysis.Tasks, law), nil
}

// createTasks inserts up to five tasks and returns how many were stored.
// A failed task insert is logged and does not undo the amendment.
func (m *Monitor) createTasks(ctx context.Context, amendmentID int64, candidates []TaskCandidate, law model.MonitoredLaw) int {
	if len(candidates) > maxTasksPerAmendment {
		candidates = candidates[:maxTasksPerAmendment]
	}

	assignee := law.Manager
	if strings.TrimSpace(assignee) == "" {
		assignee = defaultAssignee
	}
	now := m.opts.Now()
	due := calendarDate(now.Add(taskDueOffset))

	created := 0
	for _, c := range candidates {
		task := &model.FollowUpTask{
			AmendmentID:     amendmentID,
			TaskType:        c.Type,
			TaskTitle:       truncateRunes(c.Title, maxTaskTitleLength),
			TaskDescription: c.Title,
			Priority:        model.TaskPriorityHigh,
			Assignee:        assignee,
			DueDate:         due,
			Status:          model.TaskStatusPending,
		}
		if err := m.repos.Tasks.Insert(ctx, task); err != nil {
			m.logger.Error("failed to create follow-up task", "amendment", amendmentID, "err", err)
			continue
		}
		created++
	}
	return created
}

func (m *Monitor) search(ctx context.Context, name string) ([]model.LawRecord, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.lookup.Search(ctx, name)
}

// fetchDetail returns nil, nil when the statute has no detail record
func (m *Monitor) fetchDetail(ctx context.Context, lawID string) (model.LawRecord, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	detail, err := m.lookup.FetchDetail(ctx, lawID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		m.logger.Warn("detail not found", "id", lawID)
	}
	return detail, nil
}

func (m *Monitor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.opts.RequestTimeout)
}

// appendLog writes an audit entry; a failure here is only logged
func (m *Monitor) appendLog(ctx context.Context, entry *model.MonitoringLog) {
	if entry.CheckDate.IsZero() {
		entry.CheckDate = m.opts.Now()
	}
	if err := m.repos.Logs.Append(ctx, entry); err != nil {
		m.logger.Error("failed to write monitoring log", "code", entry.LawCode, "err", err)
	}
}

// PrintSummary prints the run statistics
func (m *Monitor) PrintSummary(stats *RunStats) {
	m.logger.Print("")
	m.logger.Print("=== Amendment Check Summary ===")
	m.logger.Printf("Total laws:      %d", stats.Total)
	m.logger.Printf("New amendments:  %d", stats.Changed)
	m.logger.Printf("Persisted:       %d", stats.Persisted)
	m.logger.Printf("Unchanged:       %d", stats.Unchanged)
	m.logger.Printf("Skipped:         %d (no search result)", stats.Skipped)
	m.logger.Printf("Failed:          %d", stats.Failed)
	m.logger.Printf("Duration:        %s", stats.Duration.Round(time.Millisecond))
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
