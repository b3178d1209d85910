package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nfrund/patientdesk/internal/authflow"
	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/config"
	"github.com/nfrund/patientdesk/internal/metrics"
	"github.com/nfrund/patientdesk/internal/pubsub"
	"github.com/nfrund/patientdesk/internal/rendering"
	"github.com/nfrund/patientdesk/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"
)

// tracing is the bus tracer together with its exporter shutdown.
type tracing struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// newInjector registers the core services. Everything is built lazily on the
// first Invoke, so a test can swap a value in before that.
func newInjector(cfg config.Provider, logger *slog.Logger) *do.RootScope {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.Provide(i, providePrometheus)
	do.Provide(i, provideMetrics)
	do.Provide(i, provideTracing)
	do.Provide(i, provideBus)
	do.Provide(i, provideTransport)
	do.Provide(i, provideRegistry)
	do.Provide(i, provideRenderer)
	return i
}

func providePrometheus(do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

func provideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
}

func provideTracing(i do.Injector) (tracing, error) {
	cfg := do.MustInvoke[config.Provider](i).GetTracing()
	tracer, shutdown, err := pubsub.SetupTracing(context.Background(), pubsub.TracingConfig{
		Enabled:     cfg.Enabled,
		ServiceName: cfg.ServiceName,
		ZipkinURL:   cfg.ZipkinURL,
		Version:     version.Version,
	})
	if err != nil {
		return tracing{}, err
	}
	return tracing{tracer: tracer, shutdown: shutdown}, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	t := do.MustInvoke[tracing](i)
	return pubsub.NewWatermillBridge(do.MustInvoke[*slog.Logger](i), t.tracer), nil
}

// provideTransport returns the connection pool shared by every page
// session's client. Cookies stay per client.
func provideTransport(do.Injector) (http.RoundTripper, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 32
	t.IdleConnTimeout = 90 * time.Second
	return t, nil
}

func provideRegistry(i do.Injector) (*authflow.Registry, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	transport := do.MustInvoke[http.RoundTripper](i)
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	bc := cfg.GetBackend()
	observer := authflow.PublishingObserver(bus, logger)

	factory := func(id string) (*authflow.Session, error) {
		client, err := backend.New(backend.Config{
			BaseURL:    bc.URL,
			Endpoints:  bc.Endpoints,
			CSRFHeader: bc.CSRFHeader,
			Timeout:    time.Duration(bc.Timeout),
			Transport:  transport,
			Metrics:    m,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return authflow.NewSession(id, client, logger,
			authflow.WithTokenTimeout(time.Duration(bc.TokenTimeout)),
			authflow.WithMetrics(m),
			authflow.WithObserver(observer),
		), nil
	}

	return authflow.NewRegistry(factory, time.Duration(cfg.GetSessions().IdleTimeout), logger, m), nil
}

func provideRenderer(do.Injector) (rendering.Renderer, error) {
	return rendering.NewNodeRenderer(), nil
}
