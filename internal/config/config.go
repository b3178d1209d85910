package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/spf13/afero"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// PathEnv names the variable holding the optional JSON config file path.
const PathEnv = "PATIENTDESK_CONFIG"

// Provider is the read-only view of the configuration the server depends on.
type Provider interface {
	GetServerAddr() string
	GetSessionSecret() string
	IsDevelopment() bool
	GetBackend() Backend
	GetSessions() Sessions
	GetTracing() Tracing
	GetRateLimit() float64
}

// Duration is a time.Duration that reads "30s" style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Backend configures the account backend client.
type Backend struct {
	URL          string            `json:"url"`
	Endpoints    backend.Endpoints `json:"endpoints"`
	CSRFHeader   string            `json:"csrf_header"`
	Timeout      Duration          `json:"timeout"`
	TokenTimeout Duration          `json:"token_timeout"`
}

// Sessions configures the page session registry.
type Sessions struct {
	IdleTimeout   Duration `json:"idle_timeout"`
	SweepInterval Duration `json:"sweep_interval"`
}

// Tracing configures OpenTelemetry for the event bus.
type Tracing struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"service_name"`
	ZipkinURL   string `json:"zipkin_url"`
}

// Config holds all configuration for the application.
type Config struct {
	Env           string   `json:"env"`
	ServerAddr    string   `json:"server_addr"`
	SessionSecret string   `json:"session_secret"`
	LogFormat     string   `json:"log_format"`
	LogLevel      string   `json:"log_level"`
	RateLimit     float64  `json:"rate_limit"`
	Backend       Backend  `json:"backend"`
	Sessions      Sessions `json:"sessions"`
	Tracing       Tracing  `json:"tracing"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Env:        EnvDevelopment,
		ServerAddr: ":8080",
		LogFormat:  "text",
		LogLevel:   "info",
		RateLimit:  10,
		Backend: Backend{
			URL:          "http://127.0.0.1:8000",
			Endpoints:    backend.DefaultEndpoints(),
			CSRFHeader:   backend.DefaultCSRFHeader,
			Timeout:      Duration(10 * time.Second),
			TokenTimeout: Duration(10 * time.Second),
		},
		Sessions: Sessions{
			IdleTimeout:   Duration(30 * time.Minute),
			SweepInterval: Duration(time.Minute),
		},
		Tracing: Tracing{
			ServiceName: "patientdesk",
			ZipkinURL:   "http://localhost:9411/api/v2/spans",
		},
	}
}

// New loads a .env file when present and then builds the configuration with
// Load.
func New(fsys afero.Fs, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load(fsys, path, os.LookupEnv)
}

// Load builds the configuration from the defaults, the JSON file at path (or
// the file named by PATIENTDESK_CONFIG) and the environment, later sources
// winning, and validates the result.
func Load(fsys afero.Fs, path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookup(PathEnv)
	}
	if path != "" {
		raw, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = Duration(d)
		return nil
	}

	str("APP_ENV", &cfg.Env)
	str("SERVER_ADDR", &cfg.ServerAddr)
	str("SESSION_SECRET", &cfg.SessionSecret)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("BACKEND_URL", &cfg.Backend.URL)
	str("BACKEND_CSRF_HEADER", &cfg.Backend.CSRFHeader)
	str("PUBSUB_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	str("PUBSUB_TRACING_ZIPKIN_URL", &cfg.Tracing.ZipkinURL)

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = f
	}
	if v, ok := lookup("PUBSUB_TRACING_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PUBSUB_TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = b
	}

	for key, dst := range map[string]*Duration{
		"BACKEND_TIMEOUT":        &cfg.Backend.Timeout,
		"TOKEN_TIMEOUT":          &cfg.Backend.TokenTimeout,
		"SESSION_IDLE_TIMEOUT":   &cfg.Sessions.IdleTimeout,
		"SESSION_SWEEP_INTERVAL": &cfg.Sessions.SweepInterval,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports the first setting the application cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url %q must be an absolute URL", c.Backend.URL)
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if !c.IsDevelopment() && c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required outside development")
	}
	for name, d := range map[string]Duration{
		"backend timeout":        c.Backend.Timeout,
		"token timeout":          c.Backend.TokenTimeout,
		"session idle timeout":   c.Sessions.IdleTimeout,
		"session sweep interval": c.Sessions.SweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.RateLimit <= 0 {
		return errors.New("rate limit must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) GetServerAddr() string { return c.ServerAddr }

// GetSessionSecret returns the cookie signing secret. Development falls back
// to a fixed secret so the server starts without setup.
func (c *Config) GetSessionSecret() string {
	if c.SessionSecret == "" && c.IsDevelopment() {
		return "patientdesk-development-secret"
	}
	return c.SessionSecret
}

func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }
func (c *Config) GetBackend() Backend { return c.Backend }
func (c *Config) GetSessions() Sessions { return c.Sessions }
func (c *Config) GetTracing() Tracing { return c.Tracing }
func (c *Config) GetRateLimit() float64 { return c.RateLimit }
