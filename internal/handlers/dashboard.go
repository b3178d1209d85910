package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/middleware"
	"github.com/nfrund/patientdesk/internal/rendering"
	"github.com/nfrund/patientdesk/internal/view"
	"github.com/nfrund/patientdesk/internal/view/dto/dashboard"
	"github.com/nfrund/patientdesk/web/src/templates/layouts"
	"github.com/nfrund/patientdesk/web/src/templates/pages"
)

// DashboardHandler handles requests for the dashboard shell.
type DashboardHandler struct {
	renderer rendering.Renderer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(renderer rendering.Renderer) *DashboardHandler {
	return &DashboardHandler{renderer: renderer}
}

// DashboardGet shows the overview with the current user's first name. The
// name is read with a fresh token; without one the greeting has no name.
func (h *DashboardHandler) DashboardGet(c echo.Context) error {
	ps, err := pageSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ps.Mount(ctx)

	data := dashboard.Data{Active: dashboard.NavHome}
	user, err := ps.CurrentUser(ctx)
	switch {
	case errors.Is(err, domain.ErrTokenUnavailable):
		middleware.FromContext(ctx).Warn("Dashboard rendered without user, no token")
	case err != nil:
		middleware.FromContext(ctx).Warn("Dashboard rendered without user", "error", err)
	default:
		data.FirstName = user.FirstName
	}

	page := layouts.Dashboard("Dashboard", view.GetFlashData(c), data.Active, pages.DashboardHome(data))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// AddPatientGet shows the "Novo Paciente" placeholder.
func (h *DashboardHandler) AddPatientGet(c echo.Context) error {
	page := layouts.Dashboard("Novo Paciente", view.GetFlashData(c), dashboard.NavAdd, pages.NewPatient())
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// PatientsGet shows the "Pacientes" placeholder.
func (h *DashboardHandler) PatientsGet(c echo.Context) error {
	page := layouts.Dashboard("Pacientes", view.GetFlashData(c), dashboard.NavPatients, pages.Patients())
	return h.renderer.RenderPage(c, http.StatusOK, page)
}
