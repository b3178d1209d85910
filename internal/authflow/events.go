package authflow

import (
	"context"
	"log/slog"

	"github.com/nfrund/patientdesk/internal/pubsub"
)

// CredentialReceived is published when a registration stored a credential.
// Only the session ID travels on the bus; the handler reads the state from
// the session itself.
type CredentialReceived struct {
	SessionID string `json:"session_id"`
}

// FollowUpFinished reports the outcome of a follow-up attempt.
type FollowUpFinished struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
}

var (
	CredentialReceivedEvent = pubsub.NewEvent[CredentialReceived]("authflow.credential.received")
	FollowUpFinishedEvent   = pubsub.NewEvent[FollowUpFinished]("authflow.followup.finished")
)

// PublishingObserver returns an observer that announces stored credentials on
// the bus instead of acting on them in the request goroutine.
func PublishingObserver(pub pubsub.Publisher, logger *slog.Logger) Observer {
	return func(ctx context.Context, snap Snapshot) {
		if snap.Credential == "" {
			return
		}
		err := pubsub.Publish(ctx, pub, CredentialReceivedEvent, snap.SessionID, CredentialReceived{SessionID: snap.SessionID})
		if err != nil {
			logger.ErrorContext(ctx, "failed to publish credential event", "session_id", snap.SessionID, "error", err)
		}
	}
}

// Dispatcher advances follow-ups from bus events.
type Dispatcher struct {
	registry *Registry
	pub      pubsub.Publisher
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the sessions in registry.
func NewDispatcher(registry *Registry, pub pubsub.Publisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		pub:      pub,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Start subscribes the dispatcher to its topics. Handling stops when ctx is
// done or the subscriber is closed.
func (d *Dispatcher) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := pubsub.Subscribe(ctx, sub, CredentialReceivedEvent, d.handleCredential); err != nil {
		return err
	}
	return pubsub.Subscribe(ctx, sub, FollowUpFinishedEvent, d.logOutcome)
}

func (d *Dispatcher) handleCredential(ctx context.Context, _ string, ev CredentialReceived) error {
	s, err := d.registry.Get(ev.SessionID)
	if err != nil {
		d.logger.WarnContext(ctx, "credential event for unknown session", "session_id", ev.SessionID)
		return nil
	}

	runErr := s.FollowUp().Observe(ctx, s.Snapshot())

	out := FollowUpFinished{SessionID: ev.SessionID, State: s.FollowUp().State().String()}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return pubsub.Publish(ctx, d.pub, FollowUpFinishedEvent, ev.SessionID, out)
}

func (d *Dispatcher) logOutcome(ctx context.Context, _ string, ev FollowUpFinished) error {
	if ev.Error != "" {
		d.logger.WarnContext(ctx, "profile follow-up finished", "session_id", ev.SessionID, "state", ev.State, "error", ev.Error)
		return nil
	}
	d.logger.InfoContext(ctx, "profile follow-up finished", "session_id", ev.SessionID, "state", ev.State)
	return nil
}
