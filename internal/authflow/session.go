// Package authflow holds the per-browser page session: anti-forgery token
// acquisition, the login and registration submissions, and the profile
// follow-up that runs once a bearer credential arrives.
package authflow

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/forms"
	"github.com/nfrund/patientdesk/internal/metrics"
)

// DefaultTokenTimeout bounds one token acquisition.
const DefaultTokenTimeout = 10 * time.Second

// API is the part of the backend a session talks to. *backend.Client
// implements it.
type API interface {
	FetchCSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, csrfToken string, req backend.LoginRequest) error
	Register(ctx context.Context, csrfToken string, req backend.RegistrationRequest) (backend.RegistrationResponse, error)
	UpdateProfile(ctx context.Context, csrfToken, credential string, p domain.Profile) error
	CurrentUser(ctx context.Context, csrfToken string) (domain.User, error)
}

// Snapshot is a copy of the session state handed to observers.
type Snapshot struct {
	SessionID  string
	Token      string
	Credential string
	Profile    domain.Profile
}

// Observer is notified after the session state changed.
type Observer func(ctx context.Context, snap Snapshot)

// Option configures a Session.
type Option func(*Session)

// WithTokenTimeout sets how long one token acquisition may take.
func WithTokenTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tokenTimeout = d
		}
	}
}

// WithMetrics records follow-up outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// Session is the state of one page instance. It is safe for concurrent use;
// two submissions racing each other are both sent.
type Session struct {
	id           string
	api          API
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tokenTimeout time.Duration
	followUp     *FollowUp

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	token      string
	tokenGen   uint64
	tokenReady chan struct{}
	credential string
	profile    domain.Profile
	observers  []Observer
	lastUsed   time.Time
	closed     bool
}

// NewSession creates a page session backed by api.
func NewSession(id string, api API, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:           id,
		api:          api,
		logger:       logger.With("component", "authflow", "session_id", id),
		tokenTimeout: DefaultTokenTimeout,
		ctx:          ctx,
		cancel:       cancel,
		lastUsed:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.followUp = newFollowUp(s)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// FollowUp returns the profile follow-up bound to this session.
func (s *Session) FollowUp() *FollowUp { return s.followUp }

// Subscribe adds an observer for state changes.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  s.id,
		Token:      s.token,
		Credential: s.credential,
		Profile:    s.profile,
	}
}

// LastUsed reports when the session last served an operation.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Mount starts one token acquisition and returns without waiting for it.
// The acquisition outlives ctx's cancellation but not the session, and a
// result from an older acquisition never replaces a newer one.
func (s *Session) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.startAcquisitionLocked(ctx)
	s.mu.Unlock()
}

func (s *Session) startAcquisitionLocked(ctx context.Context) {
	s.tokenGen++
	gen := s.tokenGen
	ready := make(chan struct{})
	s.tokenReady = ready
	s.lastUsed = time.Now()

	acqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.tokenTimeout)
	stop := context.AfterFunc(s.ctx, cancel)

	go func() {
		defer close(ready)
		defer cancel()
		defer stop()

		token, err := s.api.FetchCSRFToken(acqCtx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.tokenGen || s.closed {
			s.logger.Debug("discarding superseded token acquisition", "generation", gen)
			return
		}
		if err != nil {
			// A token from an earlier mount is not reused.
			s.token = ""
			s.logger.Error("token acquisition failed", "error", err)
			return
		}
		s.token = token
		s.logger.Debug("token acquired")
	}()
}

// awaitToken waits for the latest acquisition to settle and returns the
// current token, which is empty when none could be acquired. A session that
// was never mounted is mounted first.
func (s *Session) awaitToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", domain.ErrSessionClosed
	}
	if s.tokenReady == nil {
		s.startAcquisitionLocked(ctx)
	}
	ready := s.tokenReady
	s.lastUsed = time.Now()
	s.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", domain.ErrSessionClosed
	}
	return s.token, nil
}

// Login validates f and posts it. Validation failures are returned without
// any backend call.
func (s *Session) Login(ctx context.Context, f forms.LoginForm) error {
	f.Normalize()
	if err := forms.ValidateLogin(f); err != nil {
		s.logger.DebugContext(ctx, "login form rejected", "error", err)
		return err
	}

	token, err := s.awaitToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		s.logger.WarnContext(ctx, "submitting login without anti-forgery token")
	}

	if err := s.api.Login(ctx, token, f.Payload()); err != nil {
		s.logger.ErrorContext(ctx, "login failed", "error", err, "status", domain.StatusCode(err))
		return err
	}
	s.logger.InfoContext(ctx, "login succeeded", "username", f.Username)
	return nil
}

// Register validates f, posts the registration and stores the credential it
// returns. Observers are notified once the credential is stored.
func (s *Session) Register(ctx context.Context, f forms.RegistrationForm) error {
	f.Normalize()
	if err := forms.ValidateRegistration(f); err != nil {
		s.logger.DebugContext(ctx, "registration form rejected", "error", err)
		return err
	}

	token, err := s.awaitToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		s.logger.WarnContext(ctx, "submitting registration without anti-forgery token")
	}

	resp, err := s.api.Register(ctx, token, f.Payload())
	if err != nil {
		s.logger.ErrorContext(ctx, "registration failed", "error", err, "status", domain.StatusCode(err))
		return err
	}
	s.logger.InfoContext(ctx, "registration succeeded", "username", f.Username)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "session closed after registration was accepted, skipping follow-up")
		return nil
	}
	s.profile = domain.Profile{FirstName: f.FirstName}
	if resp.Access == "" {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "registration response carried no access credential")
		return nil
	}
	s.credential = resp.Access
	snap := s.snapshotLocked()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(ctx, snap)
	}
	return nil
}

// CurrentUser reads the logged-in user. It needs a token and returns
// domain.ErrTokenUnavailable without calling the backend when there is none.
func (s *Session) CurrentUser(ctx context.Context) (domain.User, error) {
	token, err := s.awaitToken(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if token == "" {
		return domain.User{}, domain.ErrTokenUnavailable
	}

	u, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "current user lookup failed", "error", err, "status", domain.StatusCode(err))
		return domain.User{}, err
	}
	return u, nil
}

// Close tears the session down and cancels in-flight token acquisitions.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.observers = nil
	s.mu.Unlock()

	s.cancel()
	s.logger.Debug("page session closed")
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

