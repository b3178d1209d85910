package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	// Capture log output through the default logger.
	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"")
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go")
	assert.Contains(t, logOutput, "internal/server/server_test.go")
}

func TestHTTPErrorHandler_JSONClients(t *testing.T) {
	e := echo.New()
	setupErrorHandling(e)
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"internal_error","message":"Internal Server Error"}`, rec.Body.String())
}

type testServer struct {
	*Server
	fake   *testutils.FakeBackend
	http   *httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T, overrides map[string]string) *testServer {
	t.Helper()
	fake := testutils.NewFakeBackend(t)
	cfg := testutils.ConfigForTests(t, fake.URL, overrides)

	s, err := New(cfg, testutils.DiscardLogger())
	require.NoError(t, err)
	s.RegisterRoutes()

	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{
		Server: s,
		fake:   fake,
		http:   ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := ts.client.Get(ts.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (ts *testServer) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := ts.client.PostForm(ts.http.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func registration() url.Values {
	return url.Values{
		"username":   {"julia"},
		"first_name": {"julia"},
		"email":      {"julia@exemplo.com"},
		"password1":  {"correct-horse-battery"},
		"password2":  {"correct-horse-battery"},
	}
}

func TestServer_RegistrationFollowUpRunsThroughBus(t *testing.T) {
	ts := newTestServer(t, nil)
	ep := backend.DefaultEndpoints()

	resp, _ := ts.get(t, "/register")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.post(t, "/register", registration())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	require.Eventually(t, func() bool {
		return len(ts.fake.RequestsTo(http.MethodPatch, ep.UserProfile)) == 1
	}, 2*time.Second, 10*time.Millisecond, "the follow-up should send exactly one profile update")

	patch := ts.fake.RequestsTo(http.MethodPatch, ep.UserProfile)[0]
	assert.Equal(t, "Bearer tok123", patch.Header.Get("Authorization"))
	assert.Equal(t, "abc", patch.Header.Get("X-CSRFToken"))
	assert.Equal(t, map[string]any{"first_name": "julia"}, patch.JSON(t))

	require.Equal(t, 1, ts.Registry().Len())

	// Give any duplicate dispatch a chance to show up.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, ts.fake.RequestsTo(http.MethodPatch, ep.UserProfile), 1)
}

func TestServer_DashboardGreetsRegisteredUser(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.get(t, "/register")
	resp := ts.post(t, "/register", registration())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := ts.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dashboard, Julia")
	assert.Contains(t, body, "Conta criada com sucesso!")
	assert.Equal(t, 1, ts.Registry().Len(), "the browser keeps one page session")
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, _ := ts.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	resp, body = ts.get(t, "/static/css/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)

	resp, _ = ts.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The token request of the login page is recorded once it completes.
	require.Eventually(t, func() bool {
		resp, body := ts.get(t, "/metrics")
		return resp.StatusCode == http.StatusOK &&
			strings.Contains(body, `patientdesk_backend_requests_total{endpoint="token-issue",outcome="success"} 1`)
	}, 2*time.Second, 20*time.Millisecond)

	_, body = ts.get(t, "/metrics")
	assert.Contains(t, body, "patientdesk_http_requests_total")
	assert.Contains(t, body, "patientdesk_page_sessions 1")
}

func TestServer_NotFoundDoesNotOpenSession(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, _ := ts.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, ts.Registry().Len())
}

func TestServer_RateLimitsSubmissions(t *testing.T) {
	ts := newTestServer(t, map[string]string{"RATE_LIMIT": "1"})

	form := url.Values{"username": {"j"}}
	first := ts.post(t, "/login", form)
	assert.Equal(t, http.StatusUnprocessableEntity, first.StatusCode)

	second := ts.post(t, "/login", form)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestServer_RateLimitsPageSessions(t *testing.T) {
	ts := newTestServer(t, map[string]string{"RATE_LIMIT": "1"})

	// A client without cookies would open a new session on every load.
	ts.client.Jar = nil

	first, _ := ts.get(t, "/login")
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, _ := ts.get(t, "/dashboard")
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, 1, ts.Registry().Len())

	// Submissions keep a separate budget.
	resp := ts.post(t, "/login", url.Values{"username": {"j"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
