// Package login drives the multi-step vault authentication protocol:
// one attempt at a time, progress reporting, an optional OTP challenge,
// cooperative cancellation, and exactly one terminal outcome per attempt.
package login

import (
	"context"
	"errors"

	"github.com/vaultfill/vaultfill/internal/models"
)

// Stage is one step of the login protocol, reported in order as the
// remote session advances.
type Stage int

const (
	// StageLoggingIn: the session is authenticating with the vault.
	StageLoggingIn Stage = iota
	// StageRetrieving: the session is downloading the credential payload.
	StageRetrieving
	// StageDecrypting: the session is decrypting the payload.
	StageDecrypting
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageLoggingIn:
		return "logging_in"
	case StageRetrieving:
		return "retrieving"
	case StageDecrypting:
		return "decrypting"
	default:
		return "unknown"
	}
}

// ErrOTPRequired is returned by a VaultSession when the vault demands a
// one-time passcode. It is a mid-protocol branch, not a failure: the
// caller resubmits with LoginWithOTP.
var ErrOTPRequired = errors.New("one-time passcode required")

// ErrAttemptInProgress rejects a login call while another attempt is
// active. Attempts are never queued or merged.
var ErrAttemptInProgress = errors.New("login attempt already in progress")

// ErrNoOTPChallenge rejects LoginWithOTP when the previous attempt did
// not end with an OTP challenge.
var ErrNoOTPChallenge = errors.New("no pending one-time passcode challenge")

// AuthError is a terminal authentication failure with a human-readable
// reason suitable for display.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// VaultSession performs the actual network login. Implementations report
// stages through progress (which may be called from any goroutine) and
// honor ctx cancellation by returning ctx.Err(); a session that has
// already produced its result may ignore the cancellation.
type VaultSession interface {
	Login(ctx context.Context, identity, secret string, progress func(Stage)) (*models.CredentialSet, error)
	LoginWithOTP(ctx context.Context, identity, secret, otp, trustLabel string, progress func(Stage)) (*models.CredentialSet, error)
}

// Outcome tags the terminal result of a login attempt.
type Outcome int

const (
	// OutcomeSuccess: the vault accepted the login and returned credentials.
	OutcomeSuccess Outcome = iota
	// OutcomeOTPRequired: the vault demands a one-time passcode.
	OutcomeOTPRequired
	// OutcomeFailure: terminal failure; Message carries the reason.
	OutcomeFailure
	// OutcomeCancelled: the caller cancelled before a result was produced.
	OutcomeCancelled
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeOTPRequired:
		return "otp_required"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one login attempt. Credentials is set
// only for OutcomeSuccess; Message only for OutcomeFailure.
type Result struct {
	Outcome     Outcome
	Credentials *models.CredentialSet
	Message     string
}

// Listener receives progress and the terminal result of an attempt. All
// calls, across every attempt an orchestrator runs, are made from one
// goroutine, so implementations need no synchronization of their own —
// even when a callback starts the next attempt.
type Listener interface {
	OnProgress(stage Stage)
	OnLoginCompleted(result Result)
}
