package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/lawwatch/internal/model"
)

// TaskStore handles database operations for follow-up tasks
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert stores a follow-up task
func (s *TaskStore) Insert(ctx context.Context, t *model.FollowUpTask) error {
	query := `
		INSERT INTO follow_up_tasks (amendment_id, task_type, task_title, task_description,
		                             priority, assignee, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		t.AmendmentID,
		string(t.TaskType),
		t.TaskTitle,
		t.TaskDescription,
		t.Priority,
		t.Assignee,
		t.DueDate,
		t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task for amendment %d: %w", t.AmendmentID, err)
	}

	return nil
}

// ListByAmendment retrieves the tasks of one amendment
func (s *TaskStore) ListByAmendment(ctx context.Context, amendmentID int64) ([]model.FollowUpTask, error) {
	query := `
		SELECT id, amendment_id, task_type, task_title, task_description,
		       priority, assignee, due_date, status, created_at
		FROM follow_up_tasks
		WHERE amendment_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, amendmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for amendment %d: %w", amendmentID, err)
	}
	defer rows.Close()

	var tasks []model.FollowUpTask
	for rows.Next() {
		var t model.FollowUpTask
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ListForExport retrieves tasks joined with their statute, optionally filtered by status
func (s *TaskStore) ListForExport(ctx context.Context, status string) ([]model.TaskExport, error) {
	query := `
		SELECT t.id, t.amendment_id, t.task_type, t.task_title, t.task_description,
		       t.priority, t.assignee, t.due_date, t.status, t.created_at,
		       a.law_code, a.amendment_date
		FROM follow_up_tasks t
		INNER JOIN law_amendments a ON a.id = t.amendment_id
		WHERE ($1::text = '' OR t.status = $1)
		ORDER BY t.due_date, t.id
	`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for export: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskExport
	for rows.Next() {
		var t model.TaskExport
		err := rows.Scan(
			&t.ID,
			&t.AmendmentID,
			&t.TaskType,
			&t.TaskTitle,
			&t.TaskDescription,
			&t.Priority,
			&t.Assignee,
			&t.DueDate,
			&t.Status,
			&t.CreatedAt,
			&t.LawCode,
			&t.AmendmentDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func scanTask(row scanner, t *model.FollowUpTask) error {
	return row.Scan(
		&t.ID,
		&t.AmendmentID,
		&t.TaskType,
		&t.TaskTitle,
		&t.TaskDescription,
		&t.Priority,
		&t.Assignee,
		&t.DueDate,
		&t.Status,
		&t.CreatedAt,
	)
}
