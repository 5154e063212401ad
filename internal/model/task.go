package model

import "time"

// TaskType classifies a follow-up task
type TaskType string

const (
	TaskManualUpdate     TaskType = "manual-update"
	TaskTraining         TaskType = "training"
	TaskDocumentRevision TaskType = "document-revision"
	TaskInspection       TaskType = "inspection"
	TaskOther            TaskType = "other"
)

const (
	TaskStatusPending = "pending"
	TaskPriorityHigh  = "high"
)

// FollowUpTask is an action item derived from an amendment's analysis
type FollowUpTask struct {
	ID              int64
	AmendmentID     int64
	TaskType        TaskType
	TaskTitle       string
	TaskDescription string
	Priority        string
	Assignee        string
	DueDate         time.Time
	Status          string
	CreatedAt       time.Time
}

// TaskExport is a follow-up task joined with the statute it belongs to
type TaskExport struct {
	FollowUpTask
	LawCode       string
	AmendmentDate time.Time
}
