package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// State is the synchronizer's belief about the session.
type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
	// StateError is always recoverable back to StateUnauthenticated by a
	// fresh login attempt.
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateError:
		return "error"
	default:
		return ""
	}
}

// Backend is the subset of the API client the synchronizer drives.
type Backend interface {
	// CheckStatus asks the status endpoint whether the session is live.
	// The boolean result is authoritative.
	CheckStatus(ctx context.Context) (bool, *models.Quota, error)

	// ExchangeCode trades a redirect authorization code for a credential.
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// Entry describes what the current invocation carries into [Synchronizer.Bootstrap].
// Exactly one trigger applies, in field order of priority.
type Entry struct {
	Code      string  // redirect callback authorization code
	AuthError string  // redirect callback error parameter
	Pending   *Result // completion record found in shared storage at startup
}

// Synchronizer reconciles the client's "authenticated" belief with server
// truth. See the package documentation for the entry protocol.
type Synchronizer struct {
	mu      sync.Mutex
	state   State
	message string
	quota   *models.Quota

	store   *Store
	backend Backend
	events  *Broadcaster
	logger  *log.Logger

	// bootstrapped is the one-shot guard for the entry protocol: armed at
	// creation, disarmed permanently after the first Bootstrap call.
	bootstrapped bool

	retryBase  time.Duration
	maxRetries int
	sleep      func(time.Duration)
}

// NewSynchronizer creates a Synchronizer in StateUnknown.
func NewSynchronizer(store *Store, backend Backend, events *Broadcaster, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		state:      StateUnknown,
		store:      store,
		backend:    backend,
		events:     events,
		logger:     logger,
		retryBase:  time.Second,
		maxRetries: 3,
		sleep:      time.Sleep,
	}
}

// SetRetryPolicy overrides the passive-check retry backoff. Used by tests.
func (s *Synchronizer) SetRetryPolicy(base time.Duration, maxRetries int, sleep func(time.Duration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryBase = base
	s.maxRetries = maxRetries
	if sleep != nil {
		s.sleep = sleep
	}
}

// State returns the current session state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether the session is believed live.
func (s *Synchronizer) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Message returns the most recent user-visible status message.
func (s *Synchronizer) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Quota returns the most recent server-reported quota snapshot, or nil.
func (s *Synchronizer) Quota() *models.Quota {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota == nil {
		return nil
	}
	q := *s.quota
	return &q
}

// SetQuota replaces the quota snapshot wholesale with the most recent
// server response.
func (s *Synchronizer) SetQuota(q *models.Quota) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = q
}

func (s *Synchronizer) setState(state State, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.message = message
	if state == StateUnauthenticated || state == StateError {
		s.quota = nil
	}
}

// Bootstrap runs the entry protocol exactly once per process. Later calls
// are no-ops returning the current state, so setup logic that happens to
// run twice cannot replay a login.
func (s *Synchronizer) Bootstrap(ctx context.Context, entry Entry) State {
	s.mu.Lock()
	if s.bootstrapped {
		state := s.state
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("bootstrap already ran, ignoring")
		}
		return state
	}
	s.bootstrapped = true
	s.mu.Unlock()

	switch {
	case entry.Code != "" || entry.AuthError != "":
		s.HandleRedirect(ctx, entry.Code, entry.AuthError)
	case entry.Pending != nil:
		s.HandleResult(*entry.Pending)
	default:
		s.CheckStatus(ctx)
	}

	return s.State()
}

// HandleRedirect resolves the redirect-code trigger: the code is exchanged
// for a credential via the backend. The code is single-use; it is consumed
// here whether or not the exchange succeeds.
func (s *Synchronizer) HandleRedirect(ctx context.Context, code, authError string) {
	if authError != "" {
		s.setState(StateUnauthenticated, fmt.Sprintf("Authentication failed: %s", authError))
		return
	}
	if code == "" {
		s.setState(StateUnauthenticated, "Authentication failed: no code in callback")
		return
	}

	s.setState(StateChecking, "")

	token, err := s.backend.ExchangeCode(ctx, code)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("code exchange failed", "error", err)
		}
		s.setState(StateError, fmt.Sprintf("Authentication failed: %v", err))
		return
	}

	if err := s.store.Set(token); err != nil {
		s.setState(StateError, fmt.Sprintf("Authentication failed: %v", err))
		return
	}

	s.setState(StateAuthenticated, "")
}

// HandleResult resolves a completion-signal trigger.
func (s *Synchronizer) HandleResult(r Result) {
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = "Unknown error"
		}
		s.setState(StateUnauthenticated, fmt.Sprintf("Authentication failed: %s", msg))
		return
	}

	if r.Token != "" {
		if err := s.store.Set(r.Token); err != nil {
			s.setState(StateError, fmt.Sprintf("Authentication failed: %v", err))
			return
		}
	}

	s.setState(StateAuthenticated, "")
}

// CheckStatus resolves the passive-check trigger. The status endpoint's
// boolean result is authoritative. When a valid credential is stored, a
// negative or failed check is treated as transient during the login-settling
// window and retried at linearly increasing delays before the synchronizer
// settles unauthenticated. With no valid credential the first answer is
// final; there is nothing to settle.
func (s *Synchronizer) CheckStatus(ctx context.Context) {
	s.setState(StateChecking, "")

	maxRetries := 0
	if s.store != nil && s.store.Valid() {
		maxRetries = s.maxRetries
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		ok, quota, err := s.backend.CheckStatus(ctx)
		if err == nil && ok {
			s.setState(StateAuthenticated, "")
			s.SetQuota(quota)
			return
		}
		lastErr = err

		if attempt >= maxRetries {
			break
		}

		delay := time.Duration(attempt+1) * s.retryBase
		if s.logger != nil {
			s.logger.Debug("not authenticated, retrying", "attempt", attempt+1, "delay", delay)
		}
		s.sleep(delay)
	}

	if lastErr != nil {
		s.setState(StateUnauthenticated, fmt.Sprintf("Failed to check session: %v", lastErr))
		return
	}
	s.setState(StateUnauthenticated, "")
}

// AwaitLogin blocks until a completion record arrives, the timeout lapses,
// or ctx is done. The timeout only reports a stuck login; it never tears
// the flow down, and a record arriving later is still honored by the next
// sweep.
func (s *Synchronizer) AwaitLogin(ctx context.Context, results <-chan Result, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: no login completion after %s", shared.ErrTimeout, timeout)
	case r, ok := <-results:
		if !ok {
			return fmt.Errorf("%w: login result channel closed", shared.ErrAuthFailed)
		}
		s.HandleResult(r)
		if !s.Authenticated() {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, s.Message())
		}
		return nil
	}
}

// Expire flips the session to unauthenticated after a credential
// invalidation, clearing the quota snapshot.
func (s *Synchronizer) Expire() {
	s.setState(StateUnauthenticated, "Session expired. Please log in again.")
}

// WatchExpiry applies [EventAuthExpired] events to the session state until
// ctx is done.
func (s *Synchronizer) WatchExpiry(ctx context.Context) {
	if s.events == nil {
		return
	}
	expired := s.events.Subscribe(EventAuthExpired)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-expired:
				s.Expire()
			}
		}
	}()
}

// Logout clears the credential and returns to unauthenticated. Removal is
// purely local; the backend holds no revocable server-side session for
// token credentials. Subscribers to [EventLoggedOut] drop their derived
// state.
func (s *Synchronizer) Logout() error {
	if err := s.store.Remove(); err != nil {
		return err
	}
	s.setState(StateUnauthenticated, "")
	if s.events != nil {
		s.events.Publish(EventLoggedOut)
	}
	return nil
}
