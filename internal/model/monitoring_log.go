package model

import (
	"database/sql"
	"time"
)

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"

	// LogScopeAll marks an entry that covers a whole batch run
	LogScopeAll = "ALL"
)

// MonitoringLog is one append-only audit entry
type MonitoringLog struct {
	ID              int64
	CheckDate       time.Time
	LawCode         string
	Status          string
	ChangesDetected bool
	ExecutionTimeMs sql.NullInt64
	ErrorMessage    sql.NullString
}
