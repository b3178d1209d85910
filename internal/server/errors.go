package server

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/handlers"
	"github.com/nfrund/patientdesk/internal/middleware"
)

// setupErrorHandling installs the HTTP error handler. Errors that are not an
// *echo.HTTPError are logged with a stack trace and answered with a 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		logger := middleware.FromContext(c.Request().Context())

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Internal != nil {
				logger.Warn("Request failed", "status", he.Code, "error", he.Internal)
			}
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		logger.Error("Internal Server Error (Unhandled)",
			"error", err,
			"stack_trace", string(debug.Stack()),
		)

		var respErr error
		switch {
		case c.Request().Method == http.MethodHead:
			respErr = c.NoContent(http.StatusInternalServerError)
		case strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON):
			respErr = c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{
				Code:    "internal_error",
				Message: http.StatusText(http.StatusInternalServerError),
			})
		default:
			respErr = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
		if respErr != nil {
			logger.Error("Failed to write error response", "error", respErr)
		}
	}
}
