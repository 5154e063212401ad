package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MetricsService calculates dashboard statistics
type MetricsService struct {
	db *sql.DB
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(db *sql.DB) *MetricsService {
	return &MetricsService{db: db}
}

// SystemMetrics represents the monitoring state shown on the dashboard
type SystemMetrics struct {
	MonitoredLaws     int          `json:"monitored_laws"`
	TotalAmendments   int          `json:"total_amendments"`
	UnreadAmendments  int          `json:"unread_amendments"`
	PendingTasks      int          `json:"pending_tasks"`
	LastRunAt         sql.NullTime `json:"-"`
	RecentFailures    int          `json:"recent_failures"` // error log entries in the last 24h
	LatestAmendment   string       `json:"latest_amendment,omitempty"`
	LatestAmendmentOn sql.NullTime `json:"-"`
}

// Calculate gathers the dashboard counts
func (m *MetricsService) Calculate(ctx context.Context) (*SystemMetrics, error) {
	metrics := &SystemMetrics{}

	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM monitored_laws WHERE is_active = TRUE`).
		Scan(&metrics.MonitoredLaws)
	if err != nil {
		return nil, fmt.Errorf("failed to count monitored laws: %w", err)
	}

	amendmentQuery := `
		SELECT
			COUNT(*) as total_amendments,
			COUNT(*) FILTER (WHERE is_reviewed = FALSE) as unread_amendments
		FROM law_amendments
	`
	err = m.db.QueryRowContext(ctx, amendmentQuery).Scan(
		&metrics.TotalAmendments,
		&metrics.UnreadAmendments,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count amendments: %w", err)
	}

	err = m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM follow_up_tasks WHERE status = 'pending'`).
		Scan(&metrics.PendingTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending tasks: %w", err)
	}

	// Most recent amendment by promulgation date
	latestQuery := `
		SELECT COALESCE(l.law_name, a.law_code), a.amendment_date
		FROM law_amendments a
		LEFT JOIN monitored_laws l ON l.law_code = a.law_code
		ORDER BY a.amendment_date DESC, a.id DESC
		LIMIT 1
	`
	err = m.db.QueryRowContext(ctx, latestQuery).Scan(
		&metrics.LatestAmendment,
		&metrics.LatestAmendmentOn,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find latest amendment: %w", err)
	}

	err = m.db.QueryRowContext(ctx, `SELECT MAX(check_date) FROM monitoring_logs WHERE law_code = 'ALL'`).
		Scan(&metrics.LastRunAt)
	if err != nil {
		return nil, fmt.Errorf("failed to find last run: %w", err)
	}

	failureQuery := `
		SELECT COUNT(*) FROM monitoring_logs
		WHERE status = 'error' AND check_date >= $1
	`
	since := time.Now().Add(-24 * time.Hour)
	if err := m.db.QueryRowContext(ctx, failureQuery, since).Scan(&metrics.RecentFailures); err != nil {
		return nil, fmt.Errorf("failed to count recent failures: %w", err)
	}

	return metrics, nil
}
