// Package vaultstub implements a development vault server speaking a toy
// JSON login protocol with OTP challenges and device trust. It exists for
// local development and end-to-end tests; it is not the production vault
// protocol.
package vaultstub

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Account is one user known to the stub.
type Account struct {
	// Email is the login identity.
	Email string
	// Password is the expected secret, compared in plaintext (dev only).
	Password string
	// OTP, when non-empty, is the one-time passcode demanded from
	// devices the account has not trusted.
	OTP string
	// Credentials is the payload returned on successful login.
	Credentials []CredentialRecord
}

// CredentialRecord is the wire form of one stored credential.
type CredentialRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

// LoginRequest is the JSON payload for /api/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OTP        string `json:"otp,omitempty"`
	TrustLabel string `json:"trust_label,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

// LoginResponse is the JSON payload returned by /api/login.
type LoginResponse struct {
	Credentials []CredentialRecord `json:"credentials,omitempty"`
	OTPRequired bool               `json:"otp_required,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// LoginHandler serves /api/login over an in-memory account set.
type LoginHandler struct {
	log *zap.Logger

	mu       sync.Mutex
	accounts map[string]Account
	// trusted maps device identifier to the user-chosen trust label.
	trusted map[string]string
}

// NewLoginHandler creates an empty handler. Accounts are added with
// AddAccount before the server starts.
func NewLoginHandler(log *zap.Logger) *LoginHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoginHandler{
		log:      log,
		accounts: make(map[string]Account),
		trusted:  make(map[string]string),
	}
}

// AddAccount registers an account. Credential records without an ID get
// one assigned.
func (h *LoginHandler) AddAccount(a Account) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range a.Credentials {
		if a.Credentials[i].ID == "" {
			a.Credentials[i].ID = uuid.NewString()
		}
	}
	h.accounts[a.Email] = a
}

// TrustedLabel returns the trust label recorded for a device identifier.
func (h *LoginHandler) TrustedLabel(deviceID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	label, ok := h.trusted[deviceID]
	return label, ok
}

// Login handles login requests. Responses:
//
//	200 with the credential payload on success
//	400 on malformed requests
//	401 with an error message on bad credentials or a wrong passcode
//	428 when the account requires a one-time passcode from this device
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, LoginResponse{Error: "invalid request"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	account, ok := h.accounts[req.Email]
	if !ok || account.Password != req.Password {
		h.log.Info("rejected login", zap.String("email", req.Email))
		writeJSON(w, http.StatusUnauthorized, LoginResponse{Error: "invalid email or password"})
		return
	}

	_, deviceTrusted := h.trusted[req.DeviceID]
	if account.OTP != "" && !deviceTrusted {
		if req.OTP == "" {
			writeJSON(w, http.StatusPreconditionRequired, LoginResponse{OTPRequired: true})
			return
		}
		if req.OTP != account.OTP {
			writeJSON(w, http.StatusUnauthorized, LoginResponse{Error: "incorrect one-time passcode"})
			return
		}
		if req.TrustLabel != "" && req.DeviceID != "" {
			h.trusted[req.DeviceID] = req.TrustLabel
			h.log.Info("device trusted",
				zap.String("email", req.Email),
				zap.String("label", req.TrustLabel))
		}
	}

	h.log.Info("login succeeded", zap.String("email", req.Email))
	writeJSON(w, http.StatusOK, LoginResponse{Credentials: account.Credentials})
}

func writeJSON(w http.ResponseWriter, status int, body LoginResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
