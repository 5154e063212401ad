package model

import (
	"database/sql"
	"time"
)

// Amendment is a detected revision of a monitored statute.
// At most one exists per (LawCode, AmendmentDate).
type Amendment struct {
	ID               int64
	LawCode          string
	AmendmentDate    time.Time // promulgation date
	EnforcementDate  sql.NullTime
	AmendmentNo      sql.NullString
	AmendmentType    sql.NullString
	OriginalText     string
	Summary          string
	ImpactAnalysis   string
	IsReviewed       bool
	NotificationSent bool
	CreatedAt        time.Time
}
