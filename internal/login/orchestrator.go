package login

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaultfill/vaultfill/internal/models"
)

type state int

const (
	stateIdle state = iota
	stateActive
	stateOTPRequired
)

// Orchestrator owns at most one in-flight login attempt against a
// VaultSession and delivers progress and exactly one terminal result per
// attempt to its Listener.
type Orchestrator struct {
	session  VaultSession
	listener Listener
	log      *zap.Logger

	// events carries notifications from every attempt's worker to the
	// one dispatch goroutine, which alone invokes the listener.
	events chan event

	mu       sync.Mutex
	state    state
	identity string
	secret   string
	cancel   context.CancelFunc
}

type event struct {
	attempt string
	stage   Stage
	result  *Result
}

// New constructs an Orchestrator. listener must not be nil; it receives
// every notification from a single goroutine that lives as long as the
// orchestrator, so follow-up attempts started from inside a callback
// still share that one consumer context.
func New(session VaultSession, listener Listener, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		session:  session,
		listener: listener,
		log:      log,
		events:   make(chan event, 8),
	}
	go o.dispatch()
	return o
}

// LoginWithoutOTP begins a brand-new attempt with the given identity and
// secret. It returns ErrAttemptInProgress if an attempt is active; the
// attempt itself runs on a background goroutine and reports through the
// listener.
func (o *Orchestrator) LoginWithoutOTP(identity, secret string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == stateActive {
		return ErrAttemptInProgress
	}
	o.identity = identity
	o.secret = secret
	o.start(func(ctx context.Context, progress func(Stage)) (*models.CredentialSet, error) {
		return o.session.Login(ctx, identity, secret, progress)
	})
	return nil
}

// LoginWithOTP resubmits the retained identity and secret together with
// the one-time passcode. trustLabel may be empty when the user did not
// ask to trust this device; validating that a trust request carries a
// label is the caller's concern. Valid only after an OTPRequired outcome.
func (o *Orchestrator) LoginWithOTP(otp, trustLabel string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == stateActive {
		return ErrAttemptInProgress
	}
	if o.state != stateOTPRequired {
		return ErrNoOTPChallenge
	}
	identity, secret := o.identity, o.secret
	o.start(func(ctx context.Context, progress func(Stage)) (*models.CredentialSet, error) {
		return o.session.LoginWithOTP(ctx, identity, secret, otp, trustLabel, progress)
	})
	return nil
}

// Cancel asks the in-flight attempt to abort. Cancellation is
// cooperative: if the session has already produced a result, that result
// is delivered instead of Cancelled. Calling Cancel with no active
// attempt does nothing.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// start launches the worker goroutine for one attempt. Caller must hold
// o.mu.
func (o *Orchestrator) start(call func(context.Context, func(Stage)) (*models.CredentialSet, error)) {
	ctx, cancel := context.WithCancel(context.Background())
	o.state = stateActive
	o.cancel = cancel
	attemptID := uuid.NewString()
	o.log.Info("login attempt started", zap.String("attempt", attemptID))

	go func() {
		defer cancel()
		set, err := call(ctx, func(s Stage) {
			o.events <- event{attempt: attemptID, stage: s}
		})
		result := resolve(set, err)
		o.events <- event{attempt: attemptID, result: &result}
	}()
}

// dispatch is the orchestrator's single consumer goroutine: every
// listener call, across every attempt, happens here. A follow-up attempt
// started from inside OnLoginCompleted queues its notifications behind
// the running callback instead of overlapping it.
func (o *Orchestrator) dispatch() {
	for ev := range o.events {
		if ev.result == nil {
			o.log.Debug("login progress",
				zap.String("attempt", ev.attempt),
				zap.Stringer("stage", ev.stage))
			o.listener.OnProgress(ev.stage)
			continue
		}
		res := *ev.result
		// Update state before notifying so the listener may start the
		// follow-up attempt from its callback.
		o.mu.Lock()
		if res.Outcome == OutcomeOTPRequired {
			o.state = stateOTPRequired
		} else {
			o.state = stateIdle
		}
		o.cancel = nil
		o.mu.Unlock()
		o.log.Info("login attempt completed",
			zap.String("attempt", ev.attempt),
			zap.Stringer("outcome", res.Outcome))
		o.listener.OnLoginCompleted(res)
	}
}

// resolve maps a session return into the terminal result. A result the
// session produced despite cancellation wins over Cancelled; transport
// and protocol errors are folded into a failure with the message
// preserved for display.
func resolve(set *models.CredentialSet, err error) Result {
	switch {
	case err == nil:
		return Result{Outcome: OutcomeSuccess, Credentials: set}
	case errors.Is(err, ErrOTPRequired):
		return Result{Outcome: OutcomeOTPRequired}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Result{Outcome: OutcomeCancelled}
	default:
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return Result{Outcome: OutcomeFailure, Message: authErr.Message}
		}
		return Result{Outcome: OutcomeFailure, Message: err.Error()}
	}
}
