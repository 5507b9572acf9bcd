package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"

	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/config"
	"deployment-portal/backend/internal/repository"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockLogger records log calls
type MockLogger struct {
	mock.Mock
}

func (l *MockLogger) Debug(msg string, args ...any) { l.Called(msg) }
func (l *MockLogger) Info(msg string, args ...any)  { l.Called(msg) }
func (l *MockLogger) Error(msg string, args ...any) { l.Called(msg) }

func quietLogger() *MockLogger {
	l := new(MockLogger)
	l.On("Debug", mock.Anything).Maybe()
	l.On("Info", mock.Anything).Maybe()
	l.On("Error", mock.Anything).Maybe()
	return l
}

type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }

type testServer struct {
	e     *echo.Echo
	clk   *testingclock.FakeClock
	store *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := repository.LoadMemoryRepository(context.Background(), repository.NewFixtureSource())
	require.NoError(t, err)

	clk := testingclock.NewFakeClock(time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC))
	sched := async.NewScheduler(clk)
	svc, err := services.NewPortalService(repo, services.Options{
		Scheduler: sched,
		Uploader:  async.UploaderOptions{Rand: halfRand{}},
		Meter:     noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	store := session.NewStore(sched, 0)
	t.Cleanup(store.Close)
	a, err := auth.New(&config.Config{}, store, quietLogger())
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(quietLogger(), nil)
	RegisterHandlers(e.Group("/api/v1"), NewServer(svc, repo, "test"), a.RequireAuth)
	return &testServer{e: e, clk: clk, store: store}
}

func (s *testServer) login(role models.Role) *http.Cookie {
	st := s.store.Create(models.NewUser("jane.doe@company.com", role))
	return &http.Cookie{Name: auth.CookieName, Value: st.ID()}
}

func (s *testServer) do(method, path string, cookie *http.Cookie, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[HealthStatus](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
}

func TestRequiresSession(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/workflows", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
}

func TestGetMe(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/me", s.login(models.RoleITSecurity), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[Me](t, rec)
	assert.Equal(t, "Jane Doe", me.Name)
	assert.Equal(t, "JD", me.Initials)
	assert.Equal(t, "IT Security", me.RoleLabel)
	assert.True(t, me.Pages["security"])
	assert.True(t, me.Pages["notifications"])
	assert.False(t, me.Pages["cab"])
	assert.False(t, me.Pages["upload"])
}

func TestWorkflows(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(models.RoleQA)

	rec := s.do(http.MethodGet, "/api/v1/workflows", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]services.WorkflowView](t, rec), 2)

	rec = s.do(http.MethodGet, "/api/v1/workflows/wf-001", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[services.WorkflowView](t, rec).Summary.CurrentStage)

	rec = s.do(http.MethodGet, "/api/v1/workflows/missing", cookie, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/v1/workflows/missing", decode[ProblemDetails](t, rec).Instance)

	rec = s.do(http.MethodGet, "/api/v1/pipeline", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]services.WorkflowView](t, rec), 3)
}

func TestRoleGate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/cab-requests", s.login(models.RoleDeveloper), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	p := decode[ProblemDetails](t, rec)
	assert.Equal(t, "Access Restricted", p.Title)
	assert.Equal(t, "This page is only available to Change Advisory Board members. Your current role is: developer", p.Detail)

	rec = s.do(http.MethodGet, "/api/v1/notifications", s.login(models.RoleSupport), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListCABRequests_Filters(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/cab-requests?status=rejected&search=delta", s.login(models.RoleCAB), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	l := decode[services.Listing[services.CABRequestView]](t, rec)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "CAB-2024-004", l.Items[0].RequestID)
	assert.Equal(t, 4, l.Stats["total"])
}

func TestListNotifications(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/notifications?category=deployment&status=all", s.login(models.RoleProjectManager), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	l := decode[services.Listing[models.Notification]](t, rec)
	assert.Len(t, l.Items, 2)
}

func TestSubmitDecision(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(models.RoleCAB)

	rec := s.do(http.MethodPost, "/api/v1/cab-requests/cab-001/decision", cookie, map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"comments"}, decode[ProblemDetails](t, rec).InvalidFields)

	body := map[string]string{"decision": "approved", "comments": "Looks good"}
	rec = s.do(http.MethodPost, "/api/v1/cab-requests/cab-001/decision", cookie, body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "CAB-2024-001", decode[models.RecordedDecision](t, rec).RequestID)

	rec = s.do(http.MethodPost, "/api/v1/cab-requests/cab-001/decision", cookie, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.clk.Step(async.DefaultSubmitDelay)
	assert.Eventually(t, func() bool {
		rec := s.do(http.MethodGet, "/api/v1/cab-requests/CAB-2024-001", cookie, nil)
		return decode[services.CABRequestView](t, rec).Decision != nil
	}, time.Second, 5*time.Millisecond)

	rec = s.do(http.MethodGet, "/api/v1/banners/cab", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[BannerState](t, rec)
	assert.True(t, b.Visible)
	assert.Equal(t, "Decision Recorded!", b.Title)

	rec = s.do(http.MethodPost, "/api/v1/cab-requests/CAB-9999/decision", cookie, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(models.RoleDeveloper)

	rec := s.do(http.MethodPost, "/api/v1/uploads/files", cookie, NewFile{Name: "readme.md", Size: 10})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "release.tar.gz")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(strings.Repeat("x", 2048)))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/files", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	file := decode[models.UploadedFile](t, rec)
	assert.Equal(t, "release.tar.gz", file.Name)
	assert.Equal(t, int64(2048), file.Size)
	assert.Equal(t, models.FileUploading, file.Status)

	form := map[string]string{"project_name": "Project Zeta", "version": "v1.0.0", "priority": "high", "change_type": "feature"}
	rec = s.do(http.MethodPost, "/api/v1/uploads", cookie, form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "transfer still running")

	s.clk.Step(2 * time.Second)
	require.Eventually(t, func() bool {
		return s.do(http.MethodPost, "/api/v1/uploads", cookie, form).Code == http.StatusAccepted
	}, time.Second, 5*time.Millisecond)

	s.clk.Step(async.DefaultSubmitDelay)
	assert.Eventually(t, func() bool {
		rec := s.do(http.MethodGet, "/api/v1/uploads", cookie, nil)
		l := decode[services.Listing[models.Upload]](t, rec)
		return l.Total == 5 && l.Items[0].ProjectName == "Project Zeta" && l.Items[0].FileSize == "2 KB"
	}, time.Second, 5*time.Millisecond)
}

func TestRemoveUploadFile(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(models.RoleDeveloper)

	rec := s.do(http.MethodPost, "/api/v1/uploads/files", cookie, NewFile{Name: "app.jar", Size: 1})
	require.Equal(t, http.StatusAccepted, rec.Code)
	file := decode[models.UploadedFile](t, rec)

	rec = s.do(http.MethodDelete, "/api/v1/uploads/files/"+file.ID, cookie, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/api/v1/uploads/files/"+file.ID, cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlerts(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(models.RoleSupport)

	rec := s.do(http.MethodPost, "/api/v1/alerts/alert-003/dismiss", cookie, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/alerts", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]models.Alert](t, rec)
	assert.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.NotEqual(t, "alert-003", a.ID)
	}

	rec = s.do(http.MethodPost, "/api/v1/alerts/alert-999/dismiss", cookie, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBanner_UnknownPage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/banners/admin", s.login(models.RoleQA), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/banners/upload", s.login(models.RoleQA), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[BannerState](t, rec).Visible)
}

func TestProblem(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Problem(errors.New("boom")).Status)
	assert.Equal(t, "internal error", Problem(errors.New("secret")).Detail)
	assert.Equal(t, http.StatusConflict, Problem(services.ErrSubmissionInFlight).Status)
	assert.Equal(t, http.StatusBadRequest, Problem(auth.ErrInvalidCredentials).Status)
	assert.Equal(t, http.StatusTeapot, Problem(echo.NewHTTPError(http.StatusTeapot, "tea")).Status)
}

func TestSpecHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	SpecHandler()(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "operationId: SubmitDecision")

	rec = httptest.NewRecorder()
	SwaggerHandler("/openapi.yaml")(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Contains(t, rec.Body.String(), `url: "/openapi.yaml"`)
}
