package handlers

import (
	"database/sql"
	"time"

	"github.com/jjenkins/lawwatch/internal/model"
	"github.com/jjenkins/lawwatch/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

type lawResponse struct {
	ID                int64   `json:"id"`
	LawCode           string  `json:"law_code"`
	LawName           string  `json:"law_name"`
	IsActive          bool    `json:"is_active"`
	Manager           string  `json:"manager"`
	LastAmendmentDate *string `json:"last_amendment_date"`
	LastCheckDate     *string `json:"last_check_date"`
	CreatedAt         string  `json:"created_at"`
}

type amendmentResponse struct {
	ID               int64   `json:"id"`
	LawCode          string  `json:"law_code"`
	LawName          string  `json:"law_name"`
	AmendmentDate    string  `json:"amendment_date"`
	EnforcementDate  *string `json:"enforcement_date"`
	AmendmentNo      *string `json:"amendment_no"`
	AmendmentType    *string `json:"amendment_type"`
	OriginalText     string  `json:"original_text,omitempty"`
	Summary          string  `json:"summary"`
	ImpactAnalysis   string  `json:"impact_analysis"`
	IsReviewed       bool    `json:"is_reviewed"`
	NotificationSent bool    `json:"notification_sent"`
	CreatedAt        string  `json:"created_at"`
}

type taskResponse struct {
	ID              int64  `json:"id"`
	AmendmentID     int64  `json:"amendment_id"`
	TaskType        string `json:"task_type"`
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description"`
	Priority        string `json:"priority"`
	Assignee        string `json:"assignee"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
}

type logResponse struct {
	ID              int64   `json:"id"`
	CheckDate       string  `json:"check_date"`
	LawCode         string  `json:"law_code"`
	Status          string  `json:"status"`
	ChangesDetected bool    `json:"changes_detected"`
	ExecutionTimeMs *int64  `json:"execution_time_ms"`
	ErrorMessage    *string `json:"error_message"`
}

func newLawResponse(l model.MonitoredLaw) lawResponse {
	return lawResponse{
		ID:                l.ID,
		LawCode:           l.LawCode,
		LawName:           l.LawName,
		IsActive:          l.IsActive,
		Manager:           l.Manager,
		LastAmendmentDate: nullDate(l.LastAmendmentDate),
		LastCheckDate:     nullTimestamp(l.LastCheckDate),
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
}

// newAmendmentResponse omits the article text unless withText is set
func newAmendmentResponse(a store.AmendmentWithLaw, withText bool) amendmentResponse {
	resp := amendmentResponse{
		ID:               a.ID,
		LawCode:          a.LawCode,
		LawName:          a.LawName,
		AmendmentDate:    a.AmendmentDate.Format(time.DateOnly),
		EnforcementDate:  nullDate(a.EnforcementDate),
		AmendmentNo:      nullString(a.AmendmentNo),
		AmendmentType:    nullString(a.AmendmentType),
		Summary:          a.Summary,
		ImpactAnalysis:   a.ImpactAnalysis,
		IsReviewed:       a.IsReviewed,
		NotificationSent: a.NotificationSent,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
	if withText {
		resp.OriginalText = a.OriginalText
	}
	return resp
}

func newTaskResponse(t model.FollowUpTask) taskResponse {
	return taskResponse{
		ID:              t.ID,
		AmendmentID:     t.AmendmentID,
		TaskType:        string(t.TaskType),
		TaskTitle:       t.TaskTitle,
		TaskDescription: t.TaskDescription,
		Priority:        t.Priority,
		Assignee:        t.Assignee,
		DueDate:         t.DueDate.Format(time.DateOnly),
		Status:          t.Status,
	}
}

func newLogResponse(e model.MonitoringLog) logResponse {
	resp := logResponse{
		ID:              e.ID,
		CheckDate:       e.CheckDate.Format(time.RFC3339),
		LawCode:         e.LawCode,
		Status:          e.Status,
		ChangesDetected: e.ChangesDetected,
		ErrorMessage:    nullString(e.ErrorMessage),
	}
	if e.ExecutionTimeMs.Valid {
		ms := e.ExecutionTimeMs.Int64
		resp.ExecutionTimeMs = &ms
	}
	return resp
}

func nullDate(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(time.DateOnly)
	return &s
}

func nullTimestamp(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(time.RFC3339)
	return &s
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
