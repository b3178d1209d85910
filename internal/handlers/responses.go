package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/authflow"
)

// ErrorResponse is the standard format for JSON error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	PageSessions int    `json:"page_sessions"`
}

// HealthHandler reports liveness.
type HealthHandler struct {
	registry *authflow.Registry
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry *authflow.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// HealthGet answers GET /health.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", PageSessions: h.registry.Len()})
}
