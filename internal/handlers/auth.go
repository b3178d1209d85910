package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/authflow"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/forms"
	"github.com/nfrund/patientdesk/internal/middleware"
	"github.com/nfrund/patientdesk/internal/rendering"
	"github.com/nfrund/patientdesk/internal/view"
	"github.com/nfrund/patientdesk/internal/view/dto/auth"
	"github.com/nfrund/patientdesk/web/src/templates/layouts"
	"github.com/nfrund/patientdesk/web/src/templates/pages"
)

// Flash messages shown after a submission.
const (
	msgRegistered    = "Conta criada com sucesso!"
	msgLoggedIn      = "Login realizado com sucesso!"
	msgLoggedOut     = "Você saiu da sua conta."
	msgRegisterError = "Não foi possível criar a conta. Tente novamente."
	msgLoginError    = "Não foi possível entrar. Verifique seus dados e tente novamente."
)

// AuthHandler serves the login and registration pages.
type AuthHandler struct {
	renderer rendering.Renderer
	registry *authflow.Registry
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(renderer rendering.Renderer, registry *authflow.Registry) *AuthHandler {
	return &AuthHandler{
		renderer: renderer,
		registry: registry,
	}
}

// RegisterGet renders the registration page (GET /register) and starts the
// token acquisition for the form.
func (h *AuthHandler) RegisterGet(c echo.Context) error {
	ps, err := pageSession(c)
	if err != nil {
		return err
	}
	ps.Mount(c.Request().Context())

	page := layouts.Base("Criar Conta", view.GetFlashData(c), pages.Register(auth.RegisterData{}))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// RegisterPost handles the registration form submission (POST /register).
func (h *AuthHandler) RegisterPost(c echo.Context) error {
	ps, err := pageSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var form forms.RegistrationForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}

	err = ps.Register(ctx, form)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		form.Normalize()
		form.ClearPasswords()
		page := layouts.Base("Criar Conta", view.FlashData{}, pages.Register(auth.RegisterData{Form: form, Errors: verr.Fields}))
		return h.renderer.RenderPage(c, http.StatusUnprocessableEntity, page)
	case err != nil:
		logger.Warn("Registration failed", "error", err, "status", domain.StatusCode(err))
		view.SetFlashError(c, msgRegisterError)
		return c.Redirect(http.StatusSeeOther, "/register")
	}

	view.SetFlashSuccess(c, msgRegistered)
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// LoginGet renders the login page (GET /login) and starts the token
// acquisition for the form.
func (h *AuthHandler) LoginGet(c echo.Context) error {
	ps, err := pageSession(c)
	if err != nil {
		return err
	}
	ps.Mount(c.Request().Context())

	page := layouts.Base("Entrar", view.GetFlashData(c), pages.Login(auth.LoginData{}))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// LoginPost handles the login form submission (POST /login).
func (h *AuthHandler) LoginPost(c echo.Context) error {
	ps, err := pageSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var form forms.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}

	err = ps.Login(ctx, form)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		form.Normalize()
		form.ClearPassword()
		page := layouts.Base("Entrar", view.FlashData{}, pages.Login(auth.LoginData{Form: form, Errors: verr.Fields}))
		return h.renderer.RenderPage(c, http.StatusUnprocessableEntity, page)
	case err != nil:
		logger.Warn("Failed login attempt", "username", form.Username, "error", err, "status", domain.StatusCode(err))
		view.SetFlashError(c, msgLoginError)
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	view.SetFlashSuccess(c, msgLoggedIn)
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout tears the page session down (GET /logout).
func (h *AuthHandler) Logout(c echo.Context) error {
	if ps, ok := middleware.CurrentPageSession(c); ok {
		h.registry.Remove(ps.ID())
	}
	if err := middleware.ForgetPageSession(c); err != nil {
		return err
	}

	view.SetFlashSuccess(c, msgLoggedOut)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// pageSession returns the page session attached by the PageSession middleware.
func pageSession(c echo.Context) (*authflow.Session, error) {
	ps, ok := middleware.CurrentPageSession(c)
	if !ok {
		return nil, errors.New("page session middleware not installed")
	}
	return ps, nil
}
