package templates

//go:generate templ generate

// HomeMetrics holds the dashboard counters
type HomeMetrics struct {
	MonitoredLaws    int
	TotalAmendments  int
	UnreadAmendments int
	PendingTasks     int
	RecentFailures   int
	LastRun          string // empty when no batch has run yet
	HasData          bool
}

// AmendmentRow is one line of the recent amendments table
type AmendmentRow struct {
	ID              int64
	LawName         string
	AmendmentDate   string
	EnforcementDate string
	AmendmentType   string
	Summary         string
	IsReviewed      bool
}

func reviewStatus(reviewed bool) string {
	if reviewed {
		return "확인"
	}
	return "미확인"
}
