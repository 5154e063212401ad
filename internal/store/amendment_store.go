package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jjenkins/lawwatch/internal/model"
)

// DefaultAmendmentListLimit caps amendment listings
const DefaultAmendmentListLimit = 50

// AmendmentWithLaw wraps an Amendment with the name of its statute
type AmendmentWithLaw struct {
	model.Amendment
	LawName string
}

// AmendmentStore handles database operations for amendments
type AmendmentStore struct {
	db *sql.DB
}

// NewAmendmentStore creates a new AmendmentStore
func NewAmendmentStore(db *sql.DB) *AmendmentStore {
	return &AmendmentStore{db: db}
}

// Exists reports whether an amendment is recorded for the statute and date
func (s *AmendmentStore) Exists(ctx context.Context, lawCode string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM law_amendments
			WHERE law_code = $1 AND amendment_date = $2
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, lawCode, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check amendment %s/%s: %w", lawCode, date.Format(time.DateOnly), err)
	}
	return exists, nil
}

// Insert stores a new amendment. It returns false without error when the
// (law code, amendment date) pair is already taken.
func (s *AmendmentStore) Insert(ctx context.Context, a *model.Amendment) (bool, error) {
	query := `
		INSERT INTO law_amendments (law_code, amendment_date, enforcement_date, amendment_no,
		                            amendment_type, original_text, summary, impact_analysis,
		                            is_reviewed, notification_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (law_code, amendment_date) DO NOTHING
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.LawCode,
		a.AmendmentDate,
		a.EnforcementDate,
		a.AmendmentNo,
		a.AmendmentType,
		a.OriginalText,
		a.Summary,
		a.ImpactAnalysis,
		a.IsReviewed,
		a.NotificationSent,
	).Scan(&a.ID, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert amendment for %s: %w", a.LawCode, err)
	}

	return true, nil
}

// List retrieves the latest amendments by promulgation date
func (s *AmendmentStore) List(ctx context.Context, unreadOnly bool, limit int) ([]AmendmentWithLaw, error) {
	if limit <= 0 {
		limit = DefaultAmendmentListLimit
	}

	query := `
		SELECT a.id, a.law_code, a.amendment_date, a.enforcement_date, a.amendment_no,
		       a.amendment_type, a.original_text, a.summary, a.impact_analysis,
		       a.is_reviewed, a.notification_sent, a.created_at, COALESCE(l.law_name, '')
		FROM law_amendments a
		LEFT JOIN monitored_laws l ON l.law_code = a.law_code
		WHERE ($1::boolean = FALSE OR a.is_reviewed = FALSE)
		ORDER BY a.amendment_date DESC, a.id DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get amendments: %w", err)
	}
	defer rows.Close()

	var amendments []AmendmentWithLaw
	for rows.Next() {
		var a AmendmentWithLaw
		if err := scanAmendment(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan amendment: %w", err)
		}
		amendments = append(amendments, a)
	}

	return amendments, rows.Err()
}

// GetByID retrieves an amendment by id
func (s *AmendmentStore) GetByID(ctx context.Context, id int64) (*AmendmentWithLaw, error) {
	query := `
		SELECT a.id, a.law_code, a.amendment_date, a.enforcement_date, a.amendment_no,
		       a.amendment_type, a.original_text, a.summary, a.impact_analysis,
		       a.is_reviewed, a.notification_sent, a.created_at, COALESCE(l.law_name, '')
		FROM law_amendments a
		LEFT JOIN monitored_laws l ON l.law_code = a.law_code
		WHERE a.id = $1
	`

	var a AmendmentWithLaw
	err := scanAmendment(s.db.QueryRowContext(ctx, query, id), &a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get amendment %d: %w", id, err)
	}

	return &a, nil
}

// MarkRead flags an amendment as reviewed
func (s *AmendmentStore) MarkRead(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE law_amendments SET is_reviewed = TRUE WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to mark amendment %d read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark amendment %d read: %w", id, err)
	}
	return n > 0, nil
}

func scanAmendment(row scanner, a *AmendmentWithLaw) error {
	return row.Scan(
		&a.ID,
		&a.LawCode,
		&a.AmendmentDate,
		&a.EnforcementDate,
		&a.AmendmentNo,
		&a.AmendmentType,
		&a.OriginalText,
		&a.Summary,
		&a.ImpactAnalysis,
		&a.IsReviewed,
		&a.NotificationSent,
		&a.CreatedAt,
		&a.LawName,
	)
}
