package authflow

import (
	"context"
	"sync"

	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/metrics"
)

// FollowUpState is the lifecycle of the profile follow-up.
type FollowUpState int

const (
	FollowUpIdle FollowUpState = iota
	FollowUpSending
	FollowUpDone
	FollowUpFailed
)

func (s FollowUpState) String() string {
	switch s {
	case FollowUpIdle:
		return "idle"
	case FollowUpSending:
		return "sending"
	case FollowUpDone:
		return "done"
	case FollowUpFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FollowUp sends the locally collected profile fields once the registration
// credential arrives. It is meant to be driven by Observe from a state-change
// observer; each credential value is acted on at most once.
type FollowUp struct {
	session *Session

	mu       sync.Mutex
	state    FollowUpState
	observed string
	lastErr  error
}

func newFollowUp(s *Session) *FollowUp {
	return &FollowUp{session: s}
}

// State returns the current state.
func (f *FollowUp) State() FollowUpState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error of the last failed attempt.
func (f *FollowUp) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Observe reacts to a state snapshot. It does nothing when the snapshot has no
// credential or carries the credential already acted on.
func (f *FollowUp) Observe(ctx context.Context, snap Snapshot) error {
	if snap.Credential == "" {
		return nil
	}

	f.mu.Lock()
	if snap.Credential == f.observed {
		f.mu.Unlock()
		f.session.metrics.ObserveFollowUp(metrics.OutcomeSkipped)
		return nil
	}
	f.observed = snap.Credential
	f.mu.Unlock()

	return f.Run(ctx, snap)
}

// Run sends the profile update for snap right away. Without a credential it
// is aborted with domain.ErrMissingCredential and nothing is sent.
func (f *FollowUp) Run(ctx context.Context, snap Snapshot) error {
	logger := f.session.logger
	if snap.Credential == "" {
		logger.ErrorContext(ctx, "profile follow-up aborted", "error", domain.ErrMissingCredential)
		return domain.ErrMissingCredential
	}

	f.mu.Lock()
	f.state = FollowUpSending
	f.mu.Unlock()

	err := f.session.api.UpdateProfile(ctx, snap.Token, snap.Credential, snap.Profile)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = FollowUpFailed
		f.lastErr = err
		f.session.metrics.ObserveFollowUp(metrics.OutcomeError)
		logger.ErrorContext(ctx, "profile follow-up failed", "error", err, "status", domain.StatusCode(err))
		return err
	}
	f.state = FollowUpDone
	f.lastErr = nil
	f.session.metrics.ObserveFollowUp(metrics.OutcomeSuccess)
	logger.InfoContext(ctx, "profile follow-up sent")
	return nil
}
