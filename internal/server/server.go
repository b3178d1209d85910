package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/patientdesk/internal/authflow"
	"github.com/nfrund/patientdesk/internal/config"
	"github.com/nfrund/patientdesk/internal/middleware"
	"github.com/nfrund/patientdesk/internal/pubsub"
	"github.com/nfrund/patientdesk/internal/rendering"
	"github.com/nfrund/patientdesk/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

const cookieMaxAge = 86400 * 7 // 7 days

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	logger   *slog.Logger
	injector *do.RootScope

	registry *authflow.Registry
	bus      *pubsub.WatermillBridge
	renderer rendering.Renderer
	metrics  *prometheus.Registry
	tracing  tracing

	cancel context.CancelFunc
}

// New creates a Server, starts its background workers (the follow-up
// dispatcher and the idle session sweeper) and installs the middleware.
// Routes are added by RegisterRoutes.
func New(cfg config.Provider, logger *slog.Logger) (*Server, error) {
	injector := newInjector(cfg, logger)

	registry, err := do.Invoke[*authflow.Registry](injector)
	if err != nil {
		return nil, fmt.Errorf("build page session registry: %w", err)
	}

	s := &Server{
		E:        echo.New(),
		Cfg:      cfg,
		logger:   logger,
		injector: injector,
		registry: registry,
		bus:      do.MustInvoke[*pubsub.WatermillBridge](injector),
		renderer: do.MustInvoke[rendering.Renderer](injector),
		metrics:  do.MustInvoke[*prometheus.Registry](injector),
		tracing:  do.MustInvoke[tracing](injector),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	dispatcher := authflow.NewDispatcher(registry, s.bus, logger)
	if err := dispatcher.Start(ctx, s.bus); err != nil {
		cancel()
		return nil, fmt.Errorf("start follow-up dispatcher: %w", err)
	}
	go registry.Run(ctx, time.Duration(cfg.GetSessions().SweepInterval))

	s.E.HideBanner = true
	s.E.HidePort = true
	setupErrorHandling(s.E)
	s.setupMiddleware()

	logger.Info("Server initialized",
		"backend", cfg.GetBackend().URL,
		"development", cfg.IsDevelopment(),
		"tracing", cfg.GetTracing().Enabled,
	)
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.E.Use(echomw.RequestID())
	s.E.Use(middleware.Logger)
	s.E.Use(echomw.Recover())
	s.E.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "patientdesk",
		Subsystem:  "http",
		Registerer: s.metrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/static")
		},
	}))

	store := sessions.NewCookieStore([]byte(s.Cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   !s.Cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	}
	s.E.Use(session.Middleware(store))

	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))
}

// Registry exposes the page session registry, useful for testing.
func (s *Server) Registry() *authflow.Registry {
	return s.registry
}

// Shutdown stops the HTTP server, then the background workers, the page
// sessions, the bus and the trace exporter, in that order.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.E.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	s.cancel()
	s.registry.Close()
	if err := s.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if err := s.tracing.shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	s.injector.Shutdown()
	return errors.Join(errs...)
}
