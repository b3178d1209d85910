// Package backend is the HTTP client for the account backend.
//
// Every Client owns its own cookie jar, so cookies the backend sets on one
// call (the CSRF cookie, the login session) are sent back on the next one.
// Mutating calls carry the anti-forgery token in the CSRF header.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/metrics"
	"golang.org/x/net/publicsuffix"
)

// maxErrorBody caps how much of a failed response is kept in a BackendError.
const maxErrorBody = 4 << 10

// Config configures a Client.
type Config struct {
	BaseURL    string
	Endpoints  Endpoints
	CSRFHeader string
	Timeout    time.Duration
	// Transport is shared between clients; nil means http.DefaultTransport.
	Transport http.RoundTripper
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Client talks to the backend on behalf of one page session.
type Client struct {
	base       *url.URL
	endpoints  Endpoints
	csrfHeader string
	http       *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New returns a Client with a fresh cookie jar.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: base URL %q must be absolute", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("backend: create cookie jar: %w", err)
	}

	header := cfg.CSRFHeader
	if header == "" {
		header = DefaultCSRFHeader
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		endpoints:  cfg.Endpoints.withDefaults(),
		csrfHeader: header,
		http: &http.Client{
			Jar:       jar,
			Transport: cfg.Transport,
			Timeout:   cfg.Timeout,
		},
		metrics: cfg.Metrics,
		logger:  logger.With("component", "backend"),
	}, nil
}

// FetchCSRFToken asks the backend for a fresh anti-forgery token. The backend
// also sets the matching cookie, which the jar keeps.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	var out csrfTokenResponse
	if err := c.do(ctx, EndpointCSRFToken, http.MethodGet, c.endpoints.CSRFToken, nil, nil, &out); err != nil {
		return "", err
	}
	if out.CSRFToken == "" {
		return "", fmt.Errorf("%s: %w: response carried no token", EndpointCSRFToken, domain.ErrNetwork)
	}
	return out.CSRFToken, nil
}

// Login posts credentials. The response body is ignored; the backend session
// cookie lands in the jar.
func (c *Client) Login(ctx context.Context, csrfToken string, req LoginRequest) error {
	return c.do(ctx, EndpointLogin, http.MethodPost, c.endpoints.Login, c.csrf(csrfToken), req, nil)
}

// Register creates an account and returns the credential the backend issued.
func (c *Client) Register(ctx context.Context, csrfToken string, req RegistrationRequest) (RegistrationResponse, error) {
	var out RegistrationResponse
	err := c.do(ctx, EndpointRegistration, http.MethodPost, c.endpoints.Registration, c.csrf(csrfToken), req, &out)
	return out, err
}

// UpdateProfile patches the profile of the account identified by the bearer
// credential.
func (c *Client) UpdateProfile(ctx context.Context, csrfToken, credential string, p domain.Profile) error {
	h := c.csrf(csrfToken)
	h.Set("Authorization", "Bearer "+credential)
	return c.do(ctx, EndpointUserProfile, http.MethodPatch, c.endpoints.UserProfile, h, profileRequest{FirstName: p.FirstName}, nil)
}

// CurrentUser returns the user the ambient session cookies belong to.
func (c *Client) CurrentUser(ctx context.Context, csrfToken string) (domain.User, error) {
	var u domain.User
	err := c.do(ctx, EndpointCurrentUser, http.MethodGet, c.endpoints.CurrentUser, c.csrf(csrfToken), nil, &u)
	return u, err
}

// csrf builds the header set for a call carrying the token. An empty token
// leaves the header out and the backend decides.
func (c *Client) csrf(token string) http.Header {
	h := make(http.Header)
	if token != "" {
		h.Set(c.csrfHeader, token)
	}
	return h
}

func (c *Client) resolve(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = ""
	return u.String()
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, header http.Header, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		c.metrics.ObserveBackend(endpoint, outcome, time.Since(start))
	}()

	var payload io.Reader
	if body != nil {
		b, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, mErr)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), payload)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("%s: %w: %w", endpoint, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WarnContext(ctx, "backend rejected request",
			"endpoint", endpoint,
			"status", resp.StatusCode,
		)
		return &domain.BackendError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	c.logger.DebugContext(ctx, "backend request succeeded", "endpoint", endpoint, "status", resp.StatusCode)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w: decode response: %w", endpoint, domain.ErrNetwork, err)
	}
	return nil
}
