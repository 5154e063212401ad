package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jjenkins/lawwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeLookup struct {
	search      map[string][]model.LawRecord
	searchErr   map[string]error
	details     map[string]model.LawRecord
	detailErr   error
	history     map[string][]model.LawRecord
	detailCalls []string
}

func (f *fakeLookup) Search(_ context.Context, name string) ([]model.LawRecord, error) {
	if err := f.searchErr[name]; err != nil {
		return nil, err
	}
	return f.search[name], nil
}

func (f *fakeLookup) FetchDetail(_ context.Context, id string) (model.LawRecord, error) {
	f.detailCalls = append(f.detailCalls, id)
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[id], nil
}

func (f *fakeLookup) FetchRevisionHistory(_ context.Context, id string) ([]model.LawRecord, error) {
	return f.history[id], nil
}

type fakeLaws struct {
	laws    []*model.MonitoredLaw
	listErr error
}

func (f *fakeLaws) ListActive(context.Context) ([]model.MonitoredLaw, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.MonitoredLaw
	for _, l := range f.laws {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLaws) find(code string) *model.MonitoredLaw {
	for _, l := range f.laws {
		if l.LawCode == code {
			return l
		}
	}
	return nil
}

func (f *fakeLaws) UpdateLastCheckDate(_ context.Context, code string, t time.Time) error {
	f.find(code).LastCheckDate = sql.NullTime{Time: t, Valid: true}
	return nil
}

func (f *fakeLaws) UpdateLastAmendmentDate(_ context.Context, code string, d time.Time) error {
	f.find(code).LastAmendmentDate = sql.NullTime{Time: d, Valid: true}
	return nil
}

type fakeAmendments struct {
	records   []*model.Amendment
	existsErr error
}

func (f *fakeAmendments) Exists(_ context.Context, code string, date time.Time) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, a := range f.records {
		if a.LawCode == code && a.AmendmentDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAmendments) Insert(ctx context.Context, a *model.Amendment) (bool, error) {
	if exists, _ := f.Exists(ctx, a.LawCode, a.AmendmentDate); exists {
		return false, nil
	}
	a.ID = int64(len(f.records) + 1)
	f.records = append(f.records, a)
	return true, nil
}

type fakeTasks struct {
	tasks []*model.FollowUpTask
}

func (f *fakeTasks) Insert(_ context.Context, t *model.FollowUpTask) error {
	t.ID = int64(len(f.tasks) + 1)
	f.tasks = append(f.tasks, t)
	return nil
}

type fakeLogs struct {
	entries []*model.MonitoringLog
}

func (f *fakeLogs) Append(_ context.Context, e *model.MonitoringLog) error {
	f.entries = append(f.entries, e)
	return nil
}

type monitorFixture struct {
	lookup     *fakeLookup
	laws       *fakeLaws
	amendments *fakeAmendments
	tasks      *fakeTasks
	logs       *fakeLogs
	summarizer *stubSummarizer
	monitor    *Monitor
}

func newMonitorFixture(laws ...*model.MonitoredLaw) *monitorFixture {
	f := &monitorFixture{
		lookup: &fakeLookup{
			search:    map[string][]model.LawRecord{},
			searchErr: map[string]error{},
			details:   map[string]model.LawRecord{},
			history:   map[string][]model.LawRecord{},
		},
		laws:       &fakeLaws{laws: laws},
		amendments: &fakeAmendments{},
		tasks:      &fakeTasks{},
		logs:       &fakeLogs{},
		summarizer: &stubSummarizer{response: analysisText},
	}

	logger := log.New(io.Discard)
	analyzer := NewAnalyzer(f.summarizer, NewSummaryExtractor(), "산업안전보건", 0, logger)
	f.monitor = NewMonitor(f.lookup, analyzer, Repositories{
		Laws:       f.laws,
		Amendments: f.amendments,
		Tasks:      f.tasks,
		Logs:       f.logs,
	}, logger, MonitorOptions{Now: func() time.Time { return testNow }})
	return f
}

func newLaw(code, name string) *model.MonitoredLaw {
	return &model.MonitoredLaw{LawCode: code, LawName: name, IsActive: true, Manager: "안전감사팀"}
}

func searchResult(id, date string) []model.LawRecord {
	return []model.LawRecord{{model.FieldLawID: id, model.FieldPromulgationDate: date}}
}

func detailRecord(date, content string) model.LawRecord {
	return model.LawRecord{
		model.FieldLawID:            "x",
		model.FieldPromulgationDate: date,
		model.FieldEnforcementDate:  "20240715",
		model.FieldAmendmentNo:      "19999",
		model.FieldLawType:          "법률",
		model.FieldContent:          content,
	}
}

var longContent = strings.Repeat("제1조 사업주는 근로자의 안전을 확보하여야 한다. ", 10)

func TestCheckLawNewWithoutPriorDateAndNoDetail(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")

	result, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNewAmendment, result.Outcome)
	assert.Equal(t, []string{"001766"}, f.lookup.detailCalls)
	assert.Empty(t, f.amendments.records)
	require.True(t, law.LastAmendmentDate.Valid)
	assert.Equal(t, day(2024, 1, 15), law.LastAmendmentDate.Time)
	assert.Equal(t, testNow, law.LastCheckDate.Time)
}

func TestCheckLawDetailNotFoundAdvancesDate(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")

	result, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewAmendment, result.Outcome)
	assert.Zero(t, result.AmendmentID)
	assert.Equal(t, []string{"001766"}, f.lookup.detailCalls)
	assert.Equal(t, day(2024, 1, 15), law.LastAmendmentDate.Time)
}

func TestCheckLawDetailTimeoutIsRetried(t *testing.T) {
	laws := []*model.MonitoredLaw{
		newLaw("L1", "산업안전보건법"),
		newLaw("L2", "중대재해처벌법"),
	}
	laws[1].LastAmendmentDate = sql.NullTime{Time: day(2023, 6, 1), Valid: true}
	f := newMonitorFixture(laws...)
	f.lookup.search["산업안전보건법"] = searchResult("1", "20231201")
	f.lookup.search["중대재해처벌법"] = searchResult("2", "20240115")
	f.lookup.detailErr = fmt.Errorf("%w: %w", ErrFetch, context.DeadlineExceeded)

	_, err := f.monitor.CheckLaw(context.Background(), *laws[1])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, day(2023, 6, 1), laws[1].LastAmendmentDate.Time)

	stats, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Zero(t, stats.Changed)
	assert.Empty(t, f.amendments.records)
	assert.False(t, laws[0].LastAmendmentDate.Valid)
	assert.Equal(t, day(2023, 6, 1), laws[1].LastAmendmentDate.Time)

	var failed []string
	for _, e := range f.logs.entries {
		if e.Status == model.LogStatusError {
			failed = append(failed, e.LawCode)
			assert.Contains(t, e.ErrorMessage.String, "deadline exceeded")
		}
	}
	assert.Equal(t, []string{"L1", "L2"}, failed)

	// the next pass with a healthy API picks the amendments up
	f.lookup.detailErr = nil
	f.lookup.details["1"] = detailRecord("20231201", longContent)
	f.lookup.details["2"] = detailRecord("20240115", longContent)

	stats, err = f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 2, stats.Persisted)
	assert.Zero(t, stats.Failed)
	require.Len(t, f.amendments.records, 2)
	assert.Equal(t, day(2024, 1, 15), laws[1].LastAmendmentDate.Time)
}

func TestCheckLawNoChange(t *testing.T) {
	for name, searchDate := range map[string]string{"same day": "2024.01.15", "older": "2023-12-01"} {
		t.Run(name, func(t *testing.T) {
			law := newLaw("L1", "산업안전보건법")
			law.LastAmendmentDate = sql.NullTime{Time: day(2024, 1, 15), Valid: true}
			f := newMonitorFixture(law)
			f.lookup.search["산업안전보건법"] = searchResult("001766", searchDate)

			result, err := f.monitor.CheckLaw(context.Background(), *law)
			require.NoError(t, err)

			assert.Equal(t, OutcomeNoChange, result.Outcome)
			assert.Empty(t, f.lookup.detailCalls)
			assert.Equal(t, day(2024, 1, 15), law.LastAmendmentDate.Time)
			assert.True(t, law.LastCheckDate.Valid)
		})
	}
}

func TestCheckLawSkippedWithoutSearchResult(t *testing.T) {
	law := newLaw("L1", "없는법")
	f := newMonitorFixture(law)

	result, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.False(t, law.LastAmendmentDate.Valid)
}

func TestCheckLawMissingDateIsNoChange(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = []model.LawRecord{{model.FieldLawID: "001766"}}

	result, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, result.Outcome)
	assert.False(t, law.LastAmendmentDate.Valid)
}

func TestCheckLawPersistsAmendmentWithTasks(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	law.LastAmendmentDate = sql.NullTime{Time: day(2023, 8, 8), Valid: true}
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.details["001766"] = detailRecord("2024-01-15", longContent)

	longTask := strings.Repeat("가", 250)
	f.summarizer.response = "요약\n핵심 변경\n영향\n시설 관리 절차 강화\n후속 조치\n- 매뉴얼 수정\n- 교육 실시\n- 문서 개정\n- 점검표 갱신\n- " +
		longTask + "\n- 여섯번째\n- 일곱번째"

	result, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)

	require.Len(t, f.amendments.records, 1)
	a := f.amendments.records[0]
	assert.Equal(t, a.ID, result.AmendmentID)
	assert.Equal(t, "L1", a.LawCode)
	assert.Equal(t, day(2024, 1, 15), a.AmendmentDate)
	assert.Equal(t, day(2024, 7, 15), a.EnforcementDate.Time)
	assert.Equal(t, "19999", a.AmendmentNo.String)
	assert.Equal(t, "법률", a.AmendmentType.String)
	assert.Equal(t, "핵심 변경", a.Summary)
	assert.Equal(t, "시설 관리 절차 강화", a.ImpactAnalysis)
	assert.False(t, a.IsReviewed)
	assert.False(t, a.NotificationSent)

	require.Len(t, f.tasks.tasks, 5)
	assert.Equal(t, 5, result.TasksCreated)
	assert.Equal(t, model.TaskManualUpdate, f.tasks.tasks[0].TaskType)
	assert.Equal(t, model.TaskTraining, f.tasks.tasks[1].TaskType)
	for _, task := range f.tasks.tasks {
		assert.Equal(t, a.ID, task.AmendmentID)
		assert.Equal(t, "high", task.Priority)
		assert.Equal(t, "pending", task.Status)
		assert.Equal(t, "안전감사팀", task.Assignee)
		assert.Equal(t, day(2024, 3, 2), task.DueDate)
	}
	assert.Equal(t, 200, len([]rune(f.tasks.tasks[4].TaskTitle)))
	assert.Equal(t, longTask, f.tasks.tasks[4].TaskDescription)

	assert.True(t, law.LastAmendmentDate.Time.After(day(2023, 8, 8)))
}

func TestCheckLawShortContentUsesPlaceholder(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	law.Manager = ""
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.details["001766"] = detailRecord("20240115", strings.Repeat("조", 50))

	_, err := f.monitor.CheckLaw(context.Background(), *law)
	require.NoError(t, err)

	require.Len(t, f.amendments.records, 1)
	assert.Equal(t, PlaceholderNoContent, f.amendments.records[0].Summary)
	assert.Empty(t, f.amendments.records[0].ImpactAnalysis)
	assert.Empty(t, f.tasks.tasks)
	assert.Empty(t, f.summarizer.requests)
}

func TestCheckLawStorageFailureKeepsDate(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.details["001766"] = detailRecord("20240115", longContent)
	f.amendments.existsErr = errors.New("connection refused")

	_, err := f.monitor.CheckLaw(context.Background(), *law)
	assert.ErrorIs(t, err, ErrStorage)
	assert.False(t, law.LastAmendmentDate.Valid)
}

func TestRunAllTwiceInsertsOnce(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.details["001766"] = detailRecord("20240115", longContent)

	first, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Changed)

	second, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Changed)
	assert.Equal(t, 1, second.Unchanged)

	// Even with the last amendment date lost, the duplicate guard holds
	law.LastAmendmentDate = sql.NullTime{}
	third, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, third.Changed)
	assert.Equal(t, 0, third.Persisted)

	assert.Len(t, f.amendments.records, 1)
}

func TestRunAllIsolatesFailures(t *testing.T) {
	laws := []*model.MonitoredLaw{
		newLaw("L1", "산업안전보건법"),
		newLaw("L2", "중대재해처벌법"),
		newLaw("L3", "건설기술 진흥법"),
	}
	f := newMonitorFixture(laws...)
	f.lookup.search["산업안전보건법"] = searchResult("1", "20240115")
	f.lookup.details["1"] = detailRecord("20240115", longContent)
	f.lookup.searchErr["중대재해처벌법"] = fmt.Errorf("%w: %w", ErrFetch, context.DeadlineExceeded)
	f.lookup.search["건설기술 진흥법"] = searchResult("3", "20240120")
	f.lookup.details["3"] = detailRecord("20240120", longContent)

	stats, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 2, stats.Persisted)
	assert.Equal(t, 1, stats.Failed)

	require.Len(t, f.amendments.records, 2)
	assert.Equal(t, "L1", f.amendments.records[0].LawCode)
	assert.Equal(t, "L3", f.amendments.records[1].LawCode)

	var failures []*model.MonitoringLog
	for _, e := range f.logs.entries {
		if e.Status == model.LogStatusError {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "L2", failures[0].LawCode)
	assert.Contains(t, failures[0].ErrorMessage.String, "deadline exceeded")

	last := f.logs.entries[len(f.logs.entries)-1]
	assert.Equal(t, model.LogScopeAll, last.LawCode)
	assert.Equal(t, model.LogStatusSuccess, last.Status)
	assert.True(t, last.ChangesDetected)
	assert.True(t, last.ExecutionTimeMs.Valid)
	assert.False(t, laws[1].LastCheckDate.Valid)
}

func TestRunAllListFailureIsFatal(t *testing.T) {
	f := newMonitorFixture()
	f.laws.listErr = errors.New("database is down")

	stats, err := f.monitor.RunAll(context.Background())
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, ErrBatchFatal)

	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, model.LogScopeAll, f.logs.entries[0].LawCode)
	assert.Equal(t, model.LogStatusError, f.logs.entries[0].Status)
}

func TestRunAllSkipsInactiveLaws(t *testing.T) {
	inactive := newLaw("L9", "폐지된법")
	inactive.IsActive = false
	f := newMonitorFixture(inactive)

	stats, err := f.monitor.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	require.Len(t, f.logs.entries, 1)
	assert.False(t, f.logs.entries[0].ChangesDetected)
}

func TestRunAllStopsOnCancel(t *testing.T) {
	f := newMonitorFixture(newLaw("L1", "산업안전보건법"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.monitor.RunAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackfillCollectsWindow(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	law.LastAmendmentDate = sql.NullTime{Time: day(2023, 11, 1), Valid: true}
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.history["001766"] = []model.LawRecord{
		{model.FieldPromulgationDate: "2024.01.15", model.FieldAmendmentType: "일부개정", model.FieldContent: longContent},
		{model.FieldPromulgationDate: "2023.10.10", model.FieldAmendmentType: "타법개정"},
		{model.FieldPromulgationDate: "2021.03.01", model.FieldAmendmentType: "일부개정"},
		{model.FieldAmendmentType: "날짜 없음"},
	}
	f.amendments.records = []*model.Amendment{{ID: 1, LawCode: "L1", AmendmentDate: day(2023, 10, 10)}}

	stats, err := f.monitor.Backfill(context.Background(), 6)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Revisions)
	assert.Equal(t, 2, stats.InWindow)
	assert.Equal(t, 1, stats.Saved)
	require.Len(t, f.amendments.records, 2)
	assert.Equal(t, "일부개정", f.amendments.records[1].AmendmentType.String)
	assert.Equal(t, day(2024, 1, 15), law.LastAmendmentDate.Time)
}

func TestBackfillNeverMovesDateBackwards(t *testing.T) {
	law := newLaw("L1", "산업안전보건법")
	law.LastAmendmentDate = sql.NullTime{Time: day(2024, 1, 31), Valid: true}
	f := newMonitorFixture(law)
	f.lookup.search["산업안전보건법"] = searchResult("001766", "20240115")
	f.lookup.history["001766"] = []model.LawRecord{{model.FieldPromulgationDate: "20240115"}}

	_, err := f.monitor.Backfill(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 31), law.LastAmendmentDate.Time)
}

func TestBackfillRejectsNonPositiveMonths(t *testing.T) {
	_, err := newMonitorFixture().monitor.Backfill(context.Background(), 0)
	assert.Error(t, err)
}
