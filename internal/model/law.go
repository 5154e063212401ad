package model

import (
	"database/sql"
	"time"
)

// MonitoredLaw is a statute watched for new amendments
type MonitoredLaw struct {
	ID                int64
	LawCode           string
	LawName           string
	IsActive          bool
	Manager           string // responsible party, default assignee for follow-up tasks
	LastAmendmentDate sql.NullTime
	LastCheckDate     sql.NullTime
	CreatedAt         time.Time
}

// LawRecord is a flat mapping of the fields the law API may return for one record.
// A missing key means the element was absent from the payload.
type LawRecord map[Field]string

// Field names a child element read from a law API record
type Field string

const (
	FieldLawID            Field = "법령ID"
	FieldLawName          Field = "법령명한글"
	FieldLawType          Field = "법령구분명"
	FieldEnforcementDate  Field = "시행일자"
	FieldPromulgationDate Field = "공포일자"
	FieldAmendmentNo      Field = "공포번호"
	FieldAmendmentType    Field = "개정구분명"
	FieldContent          Field = "조문내용"
)

// RecordFields lists every field the extractor looks for, in payload order
var RecordFields = []Field{
	FieldLawID,
	FieldLawName,
	FieldLawType,
	FieldEnforcementDate,
	FieldPromulgationDate,
	FieldAmendmentNo,
	FieldAmendmentType,
	FieldContent,
}

// Get returns the field value and whether it was present
func (r LawRecord) Get(f Field) (string, bool) {
	v, ok := r[f]
	return v, ok
}

// Value returns the field value or "" when absent
func (r LawRecord) Value(f Field) string {
	return r[f]
}
