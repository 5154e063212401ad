package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jjenkins/lawwatch/internal/model"
)

// BackfillStats tracks history collection statistics
type BackfillStats struct {
	Laws      int
	Revisions int
	InWindow  int
	Saved     int
	Failed    int
}

// Backfill collects revisions promulgated in the last months*30 days for every
// active statute, recording each behind the duplicate guard. A statute's last
// amendment date only moves forward.
func (m *Monitor) Backfill(ctx context.Context, months int) (*BackfillStats, error) {
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive, got %d", months)
	}

	laws, err := m.repos.Laws.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list monitored laws: %v", ErrBatchFatal, err)
	}

	end := m.opts.Now()
	start := calendarDate(end.AddDate(0, 0, -30*months))
	stats := &BackfillStats{Laws: len(laws)}

	m.logger.Info("collecting amendment history",
		"from", start.Format(time.DateOnly), "to", end.Format(time.DateOnly), "laws", len(laws))

	for idx, law := range laws {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		progress := fmt.Sprintf("[%d/%d]", idx+1, len(laws))
		m.logger.Info(progress+" collecting history", "law", law.LawName)

		if err := m.backfillLaw(ctx, law, start, end, stats); err != nil {
			m.logger.Error(progress+" history collection failed", "code", law.LawCode, "err", err)
			stats.Failed++
			m.appendLog(ctx, &model.MonitoringLog{
				LawCode:      law.LawCode,
				Status:       model.LogStatusError,
				ErrorMessage: sql.NullString{String: err.Error(), Valid: true},
			})
		}

		if idx < len(laws)-1 && m.opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(m.opts.Delay):
			}
		}
	}

	return stats, nil
}

func (m *Monitor) backfillLaw(ctx context.Context, law model.MonitoredLaw, start, end time.Time, stats *BackfillStats) error {
	records, err := m.search(ctx, law.LawName)
	if err != nil {
		return fmt.Errorf("failed to search %s: %w", law.LawName, err)
	}
	if len(records) == 0 {
		m.logger.Warn("no search result", "law", law.LawName)
		return nil
	}

	lawID := records[0].Value(model.FieldLawID)
	if lawID == "" {
		m.logger.Warn("search result has no law id", "law", law.LawName)
		return nil
	}

	revisions, err := m.revisionHistory(ctx, lawID)
	if err != nil {
		return fmt.Errorf("failed to fetch revision history for %s: %w", law.LawCode, err)
	}
	stats.Revisions += len(revisions)

	var latest time.Time
	for _, rev := range revisions {
		raw := strings.TrimSpace(rev.Value(model.FieldPromulgationDate))
		if raw == "" {
			continue
		}
		date := calendarDate(ParseDateBestEffort(raw, end))
		if date.Before(start) || isAfterDay(date, end) {
			continue
		}
		stats.InWindow++
		if date.After(latest) {
			latest = date
		}

		amendment, _, err := m.saveAmendment(ctx, law, rev, date)
		if err != nil {
			m.logger.Error("failed to save revision", "code", law.LawCode, "date", raw, "err", err)
			continue
		}
		if amendment != nil {
			stats.Saved++
		}
	}

	if latest.IsZero() {
		return nil
	}
	if law.LastAmendmentDate.Valid && !isAfterDay(latest, law.LastAmendmentDate.Time) {
		return nil
	}
	if err := m.repos.Laws.UpdateLastAmendmentDate(ctx, law.LawCode, latest); err != nil {
		return fmt.Errorf("%w: failed to update last amendment date for %s: %v", ErrStorage, law.LawCode, err)
	}
	return nil
}

func (m *Monitor) revisionHistory(ctx context.Context, lawID string) ([]model.LawRecord, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.lookup.FetchRevisionHistory(ctx, lawID)
}
