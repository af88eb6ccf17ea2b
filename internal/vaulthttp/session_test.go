package vaulthttp

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaultfill/vaultfill/internal/login"
	"github.com/vaultfill/vaultfill/internal/vaultstub"
)

func newStubServer(t *testing.T, account vaultstub.Account) *httptest.Server {
	t.Helper()
	handler := vaultstub.NewLoginHandler(nil)
	handler.AddAccount(account)
	srv := httptest.NewServer(vaultstub.NewRouter(handler, nil))
	t.Cleanup(srv.Close)
	return srv
}

func plainAccount() vaultstub.Account {
	return vaultstub.Account{
		Email:    "a@b.com",
		Password: "pw",
		Credentials: []vaultstub.CredentialRecord{
			{ID: "c1", Name: "Bank", Username: "a@b.com", Password: "secret", URL: "https://bank.example.com"},
		},
	}
}

func discardProgress(login.Stage) {}

func TestSession_LoginSuccess(t *testing.T) {
	srv := newStubServer(t, plainAccount())
	session := NewSession(srv.URL, "dev-1")

	var stages []login.Stage
	set, err := session.Login(context.Background(), "a@b.com", "pw", func(s login.Stage) {
		stages = append(stages, s)
	})
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	require.Equal(t, []login.Stage{login.StageLoggingIn, login.StageRetrieving, login.StageDecrypting}, stages)

	creds := set.ByHostname("bank.example.com")
	require.Len(t, creds, 1)
	require.Equal(t, "secret", creds[0].Secret)
}

func TestSession_BadPassword(t *testing.T) {
	srv := newStubServer(t, plainAccount())
	session := NewSession(srv.URL, "dev-1")

	_, err := session.Login(context.Background(), "a@b.com", "wrong", discardProgress)
	var authErr *login.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid email or password", authErr.Message)
}

func TestSession_OTPRequired(t *testing.T) {
	account := plainAccount()
	account.OTP = "123456"
	srv := newStubServer(t, account)
	session := NewSession(srv.URL, "dev-1")

	_, err := session.Login(context.Background(), "a@b.com", "pw", discardProgress)
	require.ErrorIs(t, err, login.ErrOTPRequired)

	set, err := session.LoginWithOTP(context.Background(), "a@b.com", "pw", "123456", "", discardProgress)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
}

func TestSession_TransportError(t *testing.T) {
	session := NewSession("http://127.0.0.1:0", "dev-1")

	_, err := session.Login(context.Background(), "a@b.com", "pw", discardProgress)
	require.Error(t, err)
	var authErr *login.AuthError
	require.False(t, errors.As(err, &authErr), "transport errors are folded by the orchestrator, not the session")
}

func TestSession_Cancellation(t *testing.T) {
	srv := newStubServer(t, plainAccount())
	session := NewSession(srv.URL, "dev-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.Login(ctx, "a@b.com", "pw", discardProgress)
	require.ErrorIs(t, err, context.Canceled)
}

// recorder is a login.Listener collecting notifications.
type recorder struct {
	mu      sync.Mutex
	results []login.Result
	done    chan login.Result
}

func newRecorder() *recorder { return &recorder{done: make(chan login.Result, 4)} }

func (r *recorder) OnProgress(login.Stage) {}

func (r *recorder) OnLoginCompleted(result login.Result) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	r.done <- result
}

func (r *recorder) waitResult(t *testing.T) login.Result {
	t.Helper()
	select {
	case res := <-r.done:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for login result")
		return login.Result{}
	}
}

func TestEndToEnd_OTPThenTrustedDevice(t *testing.T) {
	account := plainAccount()
	account.OTP = "123456"
	handler := vaultstub.NewLoginHandler(nil)
	handler.AddAccount(account)
	srv := httptest.NewServer(vaultstub.NewRouter(handler, nil))
	defer srv.Close()

	session := NewSession(srv.URL, "device-fingerprint-1")
	rec := newRecorder()
	o := login.New(session, rec, nil)

	// First attempt hits the OTP challenge.
	require.NoError(t, o.LoginWithoutOTP("a@b.com", "pw"))
	res := rec.waitResult(t)
	require.Equal(t, login.OutcomeOTPRequired, res.Outcome)

	// Resubmitting with the passcode and a trust label succeeds.
	require.NoError(t, o.LoginWithOTP("123456", "home desktop"))
	res = rec.waitResult(t)
	require.Equal(t, login.OutcomeSuccess, res.Outcome)
	require.NotNil(t, res.Credentials)
	require.Equal(t, 1, res.Credentials.Len())

	// The trusted device skips the challenge on the next login.
	require.NoError(t, o.LoginWithoutOTP("a@b.com", "pw"))
	res = rec.waitResult(t)
	require.Equal(t, login.OutcomeSuccess, res.Outcome)
}
