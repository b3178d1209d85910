package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/authflow"
)

const (
	// PageSessionContextKey is the echo context key of the *authflow.Session.
	PageSessionContextKey = "page_session"

	pageSessionCookie = "patientdesk-session"
	pageSessionIDKey  = "page_session_id"
)

// PageSession attaches the browser's page session to the request, creating
// one on first use. The session ID lives in a signed cookie; everything else
// stays server side.
func PageSession(registry *authflow.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := session.Get(pageSessionCookie, c)
			if cookie == nil {
				return fmt.Errorf("page session store: %w", err)
			}
			if err != nil {
				// A cookie signed with an old secret decodes to a fresh session.
				FromContext(c.Request().Context()).Debug("discarding unreadable page session cookie", "error", err)
			}

			id, _ := cookie.Values[pageSessionIDKey].(string)
			ps, err := registry.GetOrCreate(id)
			if err != nil {
				return fmt.Errorf("open page session: %w", err)
			}

			if ps.ID() != id {
				cookie.Values[pageSessionIDKey] = ps.ID()
				cookie.Options.HttpOnly = true
				cookie.Options.SameSite = http.SameSiteLaxMode
				cookie.Options.Path = "/"
				if err := cookie.Save(c.Request(), c.Response()); err != nil {
					return fmt.Errorf("save page session cookie: %w", err)
				}
			}

			ctx := WithLogger(c.Request().Context(), FromContext(c.Request().Context()).With("session_id", ps.ID()))
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(PageSessionContextKey, ps)
			return next(c)
		}
	}
}

// CurrentPageSession returns the page session attached by PageSession.
func CurrentPageSession(c echo.Context) (*authflow.Session, bool) {
	ps, ok := c.Get(PageSessionContextKey).(*authflow.Session)
	return ps, ok
}

// ForgetPageSession drops the page session ID from the cookie so the next
// request starts a new session.
func ForgetPageSession(c echo.Context) error {
	cookie, err := session.Get(pageSessionCookie, c)
	if cookie == nil {
		return fmt.Errorf("page session store: %w", err)
	}
	delete(cookie.Values, pageSessionIDKey)
	cookie.Options.MaxAge = -1
	cookie.Options.Path = "/"
	return cookie.Save(c.Request(), c.Response())
}
