// Package auth drives cancellable OAuth-style authorization against a
// chosen server endpoint.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samermassoud/eduvpn-client/common"
)

// Status is the orchestrator's state machine position.
type Status int

const (
	// StatusIdle means no authorization is in flight.
	StatusIdle Status = iota
	// StatusRequesting means the external authorization surface is open.
	StatusRequesting
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRequesting:
		return "Requesting"
	default:
		return "Unknown"
	}
}

// State is the credential handle returned on successful authorization.
// Callers hold it for subsequent API calls; the orchestrator does not
// cache or reuse it.
type State struct {
	BaseURL      string    `json:"base_url"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the state carries an unexpired access token.
func (s *State) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.Expiry.IsZero() || now.Before(s.Expiry)
}

// Transport runs the external authorization surface. The collaborator
// that owns the surface cancels the context when the user dismisses it
// without completing.
type Transport interface {
	// Authorize performs the authorization round-trip against the
	// server at baseURL. wayfHint preselects the identity provider;
	// stateNonce is the anti-forgery state parameter for this attempt.
	Authorize(ctx context.Context, baseURL, wayfHint, stateNonce string) (*State, error)
}

// Orchestrator is a single-flight authorization controller. One
// orchestrator permits at most one in-flight authorization; independent
// instances targeting different servers are fully isolated.
type Orchestrator struct {
	transport Transport
	logger    common.Logger
	timeout   time.Duration

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
}

// New creates an orchestrator over the given transport. Attempts are
// bounded by common.AuthTimeout; an expired attempt resolves to
// ErrAuthFailed, not ErrAuthCancelled.
func New(transport Transport, logger common.Logger) *Orchestrator {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Orchestrator{
		transport: transport,
		logger:    logger,
		timeout:   common.AuthTimeout,
	}
}

// Status returns the current state machine position.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// StartAuth runs one authorization against the server at baseURL.
//
// A second call while one is already requesting is a caller contract
// violation: it fails fast with common.ErrAuthInProgress and no
// transport call is made. User dismissal of the authorization surface
// resolves to common.ErrAuthCancelled, never to a plain failure, so
// callers can suppress error dialogs; check it before ErrAuthFailed.
// There is no automatic retry: a fresh StartAuth from idle is the only
// retry path. An attempt that outlives the orchestrator's timeout
// resolves to ErrAuthFailed.
func (o *Orchestrator) StartAuth(ctx context.Context, baseURL, wayfHint string) (*State, error) {
	o.mu.Lock()
	if o.status == StatusRequesting {
		o.mu.Unlock()
		return nil, common.ErrAuthInProgress
	}
	authCtx, cancel := context.WithTimeout(ctx, o.timeout)
	o.status = StatusRequesting
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.status = StatusIdle
		o.cancel = nil
		o.mu.Unlock()
	}()

	nonce := uuid.NewString()
	o.logger.Info("auth: starting authorization against %s", baseURL)

	state, err := o.transport.Authorize(authCtx, baseURL, wayfHint, nonce)

	// A dismissed surface cancels the context; that outcome wins even
	// over a transport result that raced with the dismissal.
	if authCtx.Err() == context.Canceled {
		o.logger.Info("auth: authorization against %s cancelled", baseURL)
		return nil, common.ErrAuthCancelled
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.logger.Info("auth: authorization against %s cancelled", baseURL)
			return nil, common.ErrAuthCancelled
		}
		o.logger.Error("auth: authorization against %s failed: %v", baseURL, err)
		return nil, common.WrapError(common.ErrAuthFailed, err.Error())
	}
	if state == nil || state.AccessToken == "" {
		o.logger.Error("auth: transport returned no credential for %s", baseURL)
		return nil, common.WrapError(common.ErrAuthFailed, "empty credential from transport")
	}

	state.BaseURL = baseURL
	o.logger.Info("auth: authorized against %s", baseURL)
	return state, nil
}

// CancelAuth aborts the in-flight authorization, if any. It is called
// by the collaborator that owns the authorization surface when the user
// dismisses it; the pending StartAuth then resolves to
// common.ErrAuthCancelled.
func (o *Orchestrator) CancelAuth() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
