package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/lawwatch/internal/model"
)

// LogStore handles the append-only monitoring audit log
type LogStore struct {
	db *sql.DB
}

// NewLogStore creates a new LogStore
func NewLogStore(db *sql.DB) *LogStore {
	return &LogStore{db: db}
}

// Append writes one audit entry
func (s *LogStore) Append(ctx context.Context, e *model.MonitoringLog) error {
	query := `
		INSERT INTO monitoring_logs (check_date, law_code, status, changes_detected,
		                             execution_time_ms, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		e.CheckDate,
		e.LawCode,
		e.Status,
		e.ChangesDetected,
		e.ExecutionTimeMs,
		e.ErrorMessage,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to append monitoring log for %s: %w", e.LawCode, err)
	}

	return nil
}

// ListRecent retrieves the latest audit entries, newest first
func (s *LogStore) ListRecent(ctx context.Context, limit int) ([]model.MonitoringLog, error) {
	query := `
		SELECT id, check_date, law_code, status, changes_detected, execution_time_ms, error_message
		FROM monitoring_logs
		ORDER BY check_date DESC, id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring logs: %w", err)
	}
	defer rows.Close()

	var entries []model.MonitoringLog
	for rows.Next() {
		var e model.MonitoringLog
		err := rows.Scan(
			&e.ID,
			&e.CheckDate,
			&e.LawCode,
			&e.Status,
			&e.ChangesDetected,
			&e.ExecutionTimeMs,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monitoring log: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
