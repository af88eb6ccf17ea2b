// Package vaulthttp implements the login.VaultSession capability over the
// development stub protocol. The production vault wire protocol is owned
// elsewhere; this session exists for local development and end-to-end
// testing of the login flow.
package vaulthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vaultfill/vaultfill/internal/login"
	"github.com/vaultfill/vaultfill/internal/models"
	"github.com/vaultfill/vaultfill/internal/vaultstub"
)

// Session talks to a vault server at BaseURL. DeviceID is sent as the
// protocol-level device fingerprint so the server can recognize trusted
// devices.
type Session struct {
	BaseURL  string
	DeviceID string
	Client   *http.Client
}

// NewSession creates a Session using the default HTTP client.
func NewSession(baseURL, deviceID string) *Session {
	return &Session{BaseURL: baseURL, DeviceID: deviceID, Client: http.DefaultClient}
}

// Login authenticates without a one-time passcode.
func (s *Session) Login(ctx context.Context, identity, secret string, progress func(login.Stage)) (*models.CredentialSet, error) {
	return s.do(ctx, vaultstub.LoginRequest{
		Email:    identity,
		Password: secret,
		DeviceID: s.DeviceID,
	}, progress)
}

// LoginWithOTP authenticates with a one-time passcode and, when
// trustLabel is non-empty, asks the vault to trust this device.
func (s *Session) LoginWithOTP(ctx context.Context, identity, secret, otp, trustLabel string, progress func(login.Stage)) (*models.CredentialSet, error) {
	return s.do(ctx, vaultstub.LoginRequest{
		Email:      identity,
		Password:   secret,
		OTP:        otp,
		TrustLabel: trustLabel,
		DeviceID:   s.DeviceID,
	}, progress)
}

func (s *Session) do(ctx context.Context, payload vaultstub.LoginRequest, progress func(login.Stage)) (*models.CredentialSet, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	progress(login.StageLoggingIn)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Transport errors wrap the context error on cancellation, so the
	// orchestrator can still distinguish Cancelled from Failure.
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request: %w", err)
	}
	defer resp.Body.Close()

	progress(login.StageRetrieving)
	var decoded vaultstub.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode vault response: %w", err)
	}

	if decoded.OTPRequired || resp.StatusCode == http.StatusPreconditionRequired {
		return nil, login.ErrOTPRequired
	}
	if resp.StatusCode != http.StatusOK {
		message := decoded.Error
		if message == "" {
			message = fmt.Sprintf("vault returned status %d", resp.StatusCode)
		}
		return nil, &login.AuthError{Message: message}
	}

	progress(login.StageDecrypting)
	credentials := make([]models.Credential, 0, len(decoded.Credentials))
	for _, rec := range decoded.Credentials {
		credentials = append(credentials, models.Credential{
			ID:       rec.ID,
			Name:     rec.Name,
			Username: rec.Username,
			Secret:   rec.Password,
			URL:      rec.URL,
		})
	}
	return models.NewCredentialSet(credentials), nil
}
