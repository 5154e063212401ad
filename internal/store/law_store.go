package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jjenkins/lawwatch/internal/model"
)

const lawColumns = `id, law_code, law_name, is_active, manager,
		       last_amendment_date, last_check_date, created_at`

// LawStore handles database operations for monitored statutes
type LawStore struct {
	db *sql.DB
}

// NewLawStore creates a new LawStore
func NewLawStore(db *sql.DB) *LawStore {
	return &LawStore{db: db}
}

// ListActive retrieves every active statute ordered by id
func (s *LawStore) ListActive(ctx context.Context) ([]model.MonitoredLaw, error) {
	query := `
		SELECT ` + lawColumns + `
		FROM monitored_laws
		WHERE is_active = TRUE
		ORDER BY id
	`
	return s.query(ctx, query)
}

// List retrieves all statutes, active or not, ordered by name
func (s *LawStore) List(ctx context.Context) ([]model.MonitoredLaw, error) {
	query := `
		SELECT ` + lawColumns + `
		FROM monitored_laws
		ORDER BY law_name
	`
	return s.query(ctx, query)
}

// GetByID retrieves a statute by id
func (s *LawStore) GetByID(ctx context.Context, id int64) (*model.MonitoredLaw, error) {
	query := `
		SELECT ` + lawColumns + `
		FROM monitored_laws
		WHERE id = $1
	`

	var l model.MonitoredLaw
	err := scanLaw(s.db.QueryRowContext(ctx, query, id), &l)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get law %d: %w", id, err)
	}

	return &l, nil
}

// Create registers a statute. Registering an existing code reactivates it
// and replaces its name and manager.
func (s *LawStore) Create(ctx context.Context, l *model.MonitoredLaw) error {
	query := `
		INSERT INTO monitored_laws (law_code, law_name, manager, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (law_code) DO UPDATE SET
			law_name = EXCLUDED.law_name,
			manager = EXCLUDED.manager,
			is_active = TRUE
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, l.LawCode, l.LawName, l.Manager).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create law %s: %w", l.LawCode, err)
	}
	l.IsActive = true

	return nil
}

// Deactivate stops monitoring a statute; its amendments are kept
func (s *LawStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE monitored_laws SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate law %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate law %d: %w", id, err)
	}
	return n > 0, nil
}

// UpdateLastCheckDate records when a statute was last checked
func (s *LawStore) UpdateLastCheckDate(ctx context.Context, lawCode string, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE monitored_laws SET last_check_date = $1 WHERE law_code = $2",
		checkedAt, lawCode)
	if err != nil {
		return fmt.Errorf("failed to update last check date for %s: %w", lawCode, err)
	}
	return nil
}

// UpdateLastAmendmentDate records the most recent promulgation date seen
func (s *LawStore) UpdateLastAmendmentDate(ctx context.Context, lawCode string, date time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE monitored_laws SET last_amendment_date = $1 WHERE law_code = $2",
		date, lawCode)
	if err != nil {
		return fmt.Errorf("failed to update last amendment date for %s: %w", lawCode, err)
	}
	return nil
}

func (s *LawStore) query(ctx context.Context, query string, args ...any) ([]model.MonitoredLaw, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get laws: %w", err)
	}
	defer rows.Close()

	var laws []model.MonitoredLaw
	for rows.Next() {
		var l model.MonitoredLaw
		if err := scanLaw(rows, &l); err != nil {
			return nil, fmt.Errorf("failed to scan law: %w", err)
		}
		laws = append(laws, l)
	}

	return laws, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLaw(row scanner, l *model.MonitoredLaw) error {
	return row.Scan(
		&l.ID,
		&l.LawCode,
		&l.LawName,
		&l.IsActive,
		&l.Manager,
		&l.LastAmendmentDate,
		&l.LastCheckDate,
		&l.CreatedAt,
	)
}
