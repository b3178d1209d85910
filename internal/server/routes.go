package server

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/patientdesk/internal/handlers"
	"github.com/nfrund/patientdesk/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	authHandler := handlers.NewAuthHandler(s.renderer, s.registry)
	dashboardHandler := handlers.NewDashboardHandler(s.renderer)
	healthHandler := handlers.NewHealthHandler(s.registry)
	rateLimiter := middleware.RateLimiter(s.Cfg.GetRateLimit())
	// Page loads open sessions and fetch tokens, so they get their own budget.
	pageLimiter := middleware.RateLimiter(s.Cfg.GetRateLimit())

	s.E.GET("/health", healthHandler.HealthGet)
	s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: s.metrics}))

	// Pages that talk to the backend run inside a page session.
	ps := middleware.PageSession(s.registry)

	s.E.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	})

	s.E.GET("/register", authHandler.RegisterGet, pageLimiter, ps)
	s.E.POST("/register", authHandler.RegisterPost, rateLimiter, ps)

	s.E.GET("/login", authHandler.LoginGet, pageLimiter, ps)
	s.E.POST("/login", authHandler.LoginPost, rateLimiter, ps)
	s.E.GET("/logout", authHandler.Logout, pageLimiter, ps)

	dashboard := s.E.Group("/dashboard", pageLimiter, ps)
	dashboard.GET("", dashboardHandler.DashboardGet)
	dashboard.GET("/add", dashboardHandler.AddPatientGet)
	dashboard.GET("/patients", dashboardHandler.PatientsGet)
}
