package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/lawwatch/internal/model"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/jjenkins/lawwatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLaws struct {
	laws    []model.MonitoredLaw
	created []*model.MonitoredLaw
	err     error
}

func (f *fakeLaws) List(context.Context) ([]model.MonitoredLaw, error) { return f.laws, f.err }

func (f *fakeLaws) GetByID(_ context.Context, id int64) (*model.MonitoredLaw, error) {
	for i := range f.laws {
		if f.laws[i].ID == id {
			return &f.laws[i], f.err
		}
	}
	return nil, f.err
}

func (f *fakeLaws) Create(_ context.Context, l *model.MonitoredLaw) error {
	if f.err != nil {
		return f.err
	}
	l.ID = int64(len(f.created) + 1)
	l.IsActive = true
	f.created = append(f.created, l)
	return nil
}

func (f *fakeLaws) Deactivate(_ context.Context, id int64) (bool, error) {
	return id == 1, f.err
}

type fakeAmendments struct {
	list       []store.AmendmentWithLaw
	unreadOnly bool
	read       []int64
}

func (f *fakeAmendments) List(_ context.Context, unreadOnly bool, _ int) ([]store.AmendmentWithLaw, error) {
	f.unreadOnly = unreadOnly
	return f.list, nil
}

func (f *fakeAmendments) GetByID(_ context.Context, id int64) (*store.AmendmentWithLaw, error) {
	for _, a := range f.list {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAmendments) MarkRead(_ context.Context, id int64) (bool, error) {
	f.read = append(f.read, id)
	return id == 7, nil
}

type fakeTasks struct{}

func (fakeTasks) ListByAmendment(_ context.Context, id int64) ([]model.FollowUpTask, error) {
	return []model.FollowUpTask{{ID: 1, AmendmentID: id, TaskType: model.TaskTraining, TaskTitle: "교육 실시",
		Priority: "high", Status: "pending", DueDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}}, nil
}

type fakeLogs struct{ limit int }

func (f *fakeLogs) ListRecent(_ context.Context, limit int) ([]model.MonitoringLog, error) {
	f.limit = limit
	return []model.MonitoringLog{{ID: 1, LawCode: "L2", Status: "error",
		ErrorMessage: sql.NullString{String: "timeout", Valid: true}}}, nil
}

type fakeMetrics struct {
	metrics *service.SystemMetrics
	err     error
}

func (f fakeMetrics) Calculate(context.Context) (*service.SystemMetrics, error) { return f.metrics, f.err }

type fakeChecker struct {
	stats *service.RunStats
	err   error
}

func (f fakeChecker) RunAll(context.Context) (*service.RunStats, error) { return f.stats, f.err }

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func sampleAmendment() store.AmendmentWithLaw {
	return store.AmendmentWithLaw{
		Amendment: model.Amendment{
			ID:            7,
			LawCode:       "L1",
			AmendmentDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			AmendmentType: sql.NullString{String: "일부개정", Valid: true},
			OriginalText:  "제1조",
			Summary:       "요약",
		},
		LawName: "산업안전보건법",
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestLawsHandlers(t *testing.T) {
	laws := &fakeLaws{laws: []model.MonitoredLaw{{ID: 1, LawCode: "L1", LawName: "산업안전보건법", IsActive: true}}}
	app := fiber.New()
	app.Get("/api/monitored-laws", LawsHandler(laws))
	app.Get("/api/monitored-laws/:id", LawDetailHandler(laws))
	app.Post("/api/monitored-laws", CreateLawHandler(laws))
	app.Delete("/api/monitored-laws/:id", DeleteLawHandler(laws))

	resp, body := doRequest(t, app, http.MethodGet, "/api/monitored-laws", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list []lawResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Nil(t, list[0].LastAmendmentDate)

	resp, body = doRequest(t, app, http.MethodGet, "/api/monitored-laws/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var one lawResponse
	require.NoError(t, json.Unmarshal(body, &one))
	assert.Equal(t, "산업안전보건법", one.LawName)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/monitored-laws/9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/monitored-laws/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/monitored-laws", `{"law_code":" L2 ","law_name":"중대재해처벌법","manager":"안전팀"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, laws.created, 1)
	assert.Equal(t, "L2", laws.created[0].LawCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/monitored-laws", `{"law_code":"L3"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/monitored-laws/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodDelete, "/api/monitored-laws/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodDelete, "/api/monitored-laws/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAmendmentHandlers(t *testing.T) {
	amendments := &fakeAmendments{list: []store.AmendmentWithLaw{sampleAmendment()}}
	app := fiber.New()
	app.Get("/api/amendments", AmendmentsHandler(amendments))
	app.Get("/api/amendments/:id", AmendmentDetailHandler(amendments))
	app.Post("/api/amendments/:id/mark-read", MarkReadHandler(amendments))
	app.Get("/api/amendments/:id/tasks", AmendmentTasksHandler(fakeTasks{}))

	resp, body := doRequest(t, app, http.MethodGet, "/api/amendments?unread_only=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, amendments.unreadOnly)
	var list []amendmentResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "2024-01-15", list[0].AmendmentDate)
	assert.Empty(t, list[0].OriginalText)

	resp, body = doRequest(t, app, http.MethodGet, "/api/amendments/7", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail amendmentResponse
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "제1조", detail.OriginalText)
	assert.Equal(t, "일부개정", *detail.AmendmentType)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/amendments/8", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/amendments/7/mark-read", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{7}, amendments.read)

	resp, body = doRequest(t, app, http.MethodGet, "/api/amendments/7/tasks", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"task_type":"training"`)
	assert.Contains(t, string(body), `"due_date":"2024-03-02"`)
}

func TestCheckHandler(t *testing.T) {
	logger := log.New(io.Discard)

	app := fiber.New()
	app.Post("/ok", CheckHandler(fakeChecker{stats: &service.RunStats{Changed: 3, Persisted: 2, Failed: 1}}, logger))
	app.Post("/fatal", CheckHandler(fakeChecker{err: fmt.Errorf("%w: db down", service.ErrBatchFatal)}, logger))

	resp, body := doRequest(t, app, http.MethodPost, "/ok", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ok checkResponse
	require.NoError(t, json.Unmarshal(body, &ok))
	assert.True(t, ok.Success)
	assert.Equal(t, 2, ok.Count, "count reports recorded amendments, not changed statutes")
	assert.Equal(t, 1, ok.Failed)
	assert.Equal(t, "2건의 신규 개정사항을 발견했습니다.", ok.Message)
	assert.Empty(t, ok.Error)
}

func TestCheckHandlerBatchFatalIsSuccessShaped(t *testing.T) {
	app := fiber.New()
	app.Post("/fatal", CheckHandler(fakeChecker{err: fmt.Errorf("%w: db down", service.ErrBatchFatal)}, log.New(io.Discard)))

	resp, body := doRequest(t, app, http.MethodPost, "/fatal", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fatal checkResponse
	require.NoError(t, json.Unmarshal(body, &fatal))
	assert.True(t, fatal.Success)
	assert.Zero(t, fatal.Count)
	assert.Equal(t, "0건의 신규 개정사항을 발견했습니다.", fatal.Message)
	assert.Contains(t, fatal.Error, "db down")
}

func TestStatsAndHomeHandlers(t *testing.T) {
	metrics := fakeMetrics{metrics: &service.SystemMetrics{MonitoredLaws: 3, TotalAmendments: 5, UnreadAmendments: 2}}
	amendments := &fakeAmendments{list: []store.AmendmentWithLaw{sampleAmendment()}}

	app := fiber.New()
	app.Get("/", HomeHandler(metrics, amendments, log.New(io.Discard)))
	app.Get("/api/stats", StatsHandler(metrics))
	app.Get("/api/stats-broken", StatsHandler(fakeMetrics{err: errors.New("boom")}))

	resp, body := doRequest(t, app, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"monitored_laws":3`)
	assert.Contains(t, string(body), `"unread_amendments":2`)
	assert.Contains(t, string(body), `"total_amendments":5`)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/stats-broken", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "산업안전보건법")
	assert.Contains(t, string(body), "2024-01-15")
}

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/health", HealthHandler(fakePinger{}, HealthInfo{LawAPIConfigured: true}))
	app.Get("/health-down", HealthHandler(fakePinger{err: errors.New("refused")}, HealthInfo{}))

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"law_api":"configured"`)
	assert.Contains(t, string(body), `"ai":"not configured"`)

	resp, _ = doRequest(t, app, http.MethodGet, "/health-down", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLogsHandler(t *testing.T) {
	logs := &fakeLogs{}
	app := fiber.New()
	app.Get("/api/logs", LogsHandler(logs))

	resp, body := doRequest(t, app, http.MethodGet, "/api/logs?limit=9999", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, defaultLogLimit, logs.limit)
	assert.Contains(t, string(body), `"error_message":"timeout"`)
	assert.Contains(t, string(body), `"execution_time_ms":null`)
}
