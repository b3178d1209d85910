package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/authflow"
	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAPI struct{}

func (nopAPI) FetchCSRFToken(context.Context) (string, error) { return "abc", nil }
func (nopAPI) Login(context.Context, string, backend.LoginRequest) error {
	return nil
}
func (nopAPI) Register(context.Context, string, backend.RegistrationRequest) (backend.RegistrationResponse, error) {
	return backend.RegistrationResponse{}, nil
}
func (nopAPI) UpdateProfile(context.Context, string, string, domain.Profile) error { return nil }
func (nopAPI) CurrentUser(context.Context, string) (domain.User, error) {
	return domain.User{}, nil
}

func setupPageSessionEcho(t *testing.T) (*echo.Echo, *authflow.Registry) {
	t.Helper()
	registry := authflow.NewRegistry(func(id string) (*authflow.Session, error) {
		return authflow.NewSession(id, nopAPI{}, testutils.DiscardLogger()), nil
	}, time.Minute, testutils.DiscardLogger(), nil)
	t.Cleanup(registry.Close)

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))
	e.Use(PageSession(registry))
	e.GET("/", func(c echo.Context) error {
		ps, ok := CurrentPageSession(c)
		require.True(t, ok)
		return c.String(http.StatusOK, ps.ID())
	})
	e.GET("/forget", func(c echo.Context) error {
		return ForgetPageSession(c)
	})
	return e, registry
}

func TestPageSession_ReusedAcrossRequests(t *testing.T) {
	e, registry := setupPageSessionEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	firstID := rec.Body.String()
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "a new page session sets its cookie")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, firstID, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "a known session does not rewrite its cookie")
	assert.Equal(t, 1, registry.Len())
}

func TestPageSession_UnknownIDGetsFreshSession(t *testing.T) {
	e, registry := setupPageSessionEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	registry.Remove(rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)

	assert.NotEqual(t, rec.Body.String(), rec2.Body.String())
	assert.NotEmpty(t, rec2.Result().Cookies())
}

func TestForgetPageSession_ExpiresCookie(t *testing.T) {
	e, _ := setupPageSessionEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forget", nil))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Less(t, cookies[len(cookies)-1].MaxAge, 0)
}

func TestCurrentPageSession_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := CurrentPageSession(c)
	assert.False(t, ok)
}

func TestLogger_InjectsRequestLogger(t *testing.T) {
	e := echo.New()
	var sawLogger bool
	handler := Logger(func(c echo.Context) error {
		sawLogger = FromContext(c.Request().Context()) != nil
		return echo.NewHTTPError(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c), "errors are handed to the HTTP error handler")
	assert.True(t, sawLogger)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
