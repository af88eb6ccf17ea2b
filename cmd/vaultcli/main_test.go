package main

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultfill/vaultfill/internal/cache"
	"github.com/vaultfill/vaultfill/internal/login"
	"github.com/vaultfill/vaultfill/internal/models"
)

// memStore is an in-memory cache.KeyValueStore for tests.
type memStore struct {
	values map[string]string
}

func newMemStore() *memStore { return &memStore{values: make(map[string]string)} }

func (m *memStore) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// passwordSession accepts exactly one password and rejects the rest.
type passwordSession struct {
	accepted string
}

func (s *passwordSession) Login(ctx context.Context, identity, secret string, progress func(login.Stage)) (*models.CredentialSet, error) {
	if secret != s.accepted {
		return nil, &login.AuthError{Message: "invalid password"}
	}
	return models.NewCredentialSet([]models.Credential{
		{ID: "1", Name: "Bank", Username: identity, URL: "https://bank.example.com"},
	}), nil
}

func (s *passwordSession) LoginWithOTP(ctx context.Context, identity, secret, otp, trustLabel string, progress func(login.Stage)) (*models.CredentialSet, error) {
	return s.Login(ctx, identity, secret, progress)
}

func strPtr(s string) *string { return &s }

func TestSignIn_StaleRememberedLoginFallsBackToPrompt(t *testing.T) {
	credCache := cache.New(newMemStore(), "test-device-identifier", 0, nil)
	require.NoError(t, credCache.SetRememberedIdentityAndSecret(strPtr("a@b.com"), strPtr("oldpw")))

	listener := &consoleListener{results: make(chan login.Result, 1)}
	orchestrator := login.New(&passwordSession{accepted: "newpw"}, listener, nil)

	// Empty email line keeps the pre-filled remembered address.
	scanner := bufio.NewScanner(strings.NewReader("\nnewpw\n"))
	result, email, password, remembered := signIn(orchestrator, listener, scanner, credCache)

	require.Equal(t, login.OutcomeSuccess, result.Outcome)
	require.Equal(t, "a@b.com", email)
	require.Equal(t, "newpw", password)
	require.False(t, remembered)
}

func TestSignIn_RememberedLoginStillValid(t *testing.T) {
	credCache := cache.New(newMemStore(), "test-device-identifier", 0, nil)
	require.NoError(t, credCache.SetRememberedIdentityAndSecret(strPtr("a@b.com"), strPtr("pw")))

	listener := &consoleListener{results: make(chan login.Result, 1)}
	orchestrator := login.New(&passwordSession{accepted: "pw"}, listener, nil)

	// No input needed: the remembered login succeeds passively.
	scanner := bufio.NewScanner(strings.NewReader(""))
	result, email, _, remembered := signIn(orchestrator, listener, scanner, credCache)

	require.Equal(t, login.OutcomeSuccess, result.Outcome)
	require.Equal(t, "a@b.com", email)
	require.True(t, remembered)
}

func TestSignIn_TypedCredentialFailureIsTerminal(t *testing.T) {
	credCache := cache.New(newMemStore(), "test-device-identifier", 0, nil)

	listener := &consoleListener{results: make(chan login.Result, 1)}
	orchestrator := login.New(&passwordSession{accepted: "right"}, listener, nil)

	scanner := bufio.NewScanner(strings.NewReader("a@b.com\nwrong\n"))
	result, _, _, _ := signIn(orchestrator, listener, scanner, credCache)

	require.Equal(t, login.OutcomeFailure, result.Outcome)
	require.Equal(t, "invalid password", result.Message)
}

func TestPromptWithDefault(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("\nother@b.com\n"))

	require.Equal(t, "a@b.com", promptWithDefault(scanner, "Email", "a@b.com"))
	require.Equal(t, "other@b.com", promptWithDefault(scanner, "Email", "a@b.com"))
}
