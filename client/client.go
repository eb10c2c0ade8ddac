// Package client implements the session.AuthBackend contract over HTTP
// against the UrbanEase API, plus configuration loading and logging
// adapters for embedding applications.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"

	session "github.com/urbanease/go-session"
)

// API endpoints, relative to the configured base URL.
const (
	endpointLogin                = "/api/auth/login"
	endpointRegisterCustomer     = "/api/auth/register/customer"
	endpointRegisterBusiness     = "/api/auth/register/business"
	endpointVerifyEmail          = "/api/auth/verify-email/%s"
	endpointRefreshToken         = "/api/auth/refresh-token"
	endpointLogout               = "/api/auth/logout"
	endpointRequestPasswordReset = "/api/auth/request-password-reset"
	endpointResetPassword        = "/api/auth/reset-password"
	endpointResendVerification   = "/api/auth/resend-verification"
	endpointUserProfile          = "/api/users/profile"
)

// HTTPBackend talks to the remote auth service. It injects the stored
// bearer credential on authenticated endpoints and maps the service's
// response envelope onto the session error taxonomy.
type HTTPBackend struct {
	cfg    *Config
	creds  session.CredentialStore
	client *http.Client
	logger session.Logger
}

var _ session.AuthBackend = (*HTTPBackend)(nil)

// New builds an HTTPBackend. The credential store is consulted on every
// authenticated request, never cached.
func New(cfg *Config, creds session.CredentialStore) *HTTPBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPBackend{
		cfg:    cfg,
		creds:  creds,
		client: &http.Client{Timeout: timeout},
		logger: session.NoopLogger{},
	}
}

// WithLogger sets the request logger.
func (b *HTTPBackend) WithLogger(logger session.Logger) *HTTPBackend {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithHTTPClient swaps the underlying http.Client (useful for tests).
func (b *HTTPBackend) WithHTTPClient(client *http.Client) *HTTPBackend {
	if client != nil {
		b.client = client
	}
	return b
}

// Login implements session.AuthBackend.
func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result session.LoginResult
	if err := b.do(ctx, http.MethodPost, endpointLogin, body, false, "Login failed", &result); err != nil {
		return nil, err
	}

	if result.AccessToken == "" || result.User == nil {
		return nil, errors.New("invalid login response format", errors.CategoryOperation).
			WithTextCode(session.TextCodeTransportFailure)
	}

	return &result, nil
}

// RegisterCustomer implements session.AuthBackend.
func (b *HTTPBackend) RegisterCustomer(ctx context.Context, payload session.CustomerRegistration) (*session.RegistrationResult, error) {
	var result session.RegistrationResult
	if err := b.do(ctx, http.MethodPost, endpointRegisterCustomer, payload, false, "Customer registration failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterBusiness implements session.AuthBackend.
func (b *HTTPBackend) RegisterBusiness(ctx context.Context, payload session.BusinessRegistration) (*session.RegistrationResult, error) {
	var result session.RegistrationResult
	if err := b.do(ctx, http.MethodPost, endpointRegisterBusiness, payload, false, "Business registration failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout implements session.AuthBackend. Callers treat failures as
// best-effort; local cleanup proceeds regardless.
func (b *HTTPBackend) Logout(ctx context.Context) error {
	return b.do(ctx, http.MethodPost, endpointLogout, nil, true, "Logout failed", nil)
}

// RefreshToken implements session.AuthBackend.
func (b *HTTPBackend) RefreshToken(ctx context.Context, refreshToken string) (*session.TokenGrant, error) {
	body := map[string]string{"refreshToken": refreshToken}

	var grant session.TokenGrant
	if err := b.do(ctx, http.MethodPost, endpointRefreshToken, body, false, "Session refresh failed", &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// VerifyEmail implements session.AuthBackend.
func (b *HTTPBackend) VerifyEmail(ctx context.Context, token string) (*session.MessageResult, error) {
	path := fmt.Sprintf(endpointVerifyEmail, token)

	var result session.MessageResult
	if err := b.do(ctx, http.MethodGet, path, nil, false, "Email verification failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResendVerification implements session.AuthBackend.
func (b *HTTPBackend) ResendVerification(ctx context.Context, email string) (*session.MessageResult, error) {
	body := map[string]string{"email": email}

	var result session.MessageResult
	if err := b.do(ctx, http.MethodPost, endpointResendVerification, body, false, "Resend verification failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestPasswordReset implements session.AuthBackend.
func (b *HTTPBackend) RequestPasswordReset(ctx context.Context, email string) (*session.MessageResult, error) {
	body := map[string]string{"email": email}

	var result session.MessageResult
	if err := b.do(ctx, http.MethodPost, endpointRequestPasswordReset, body, false, "Password reset request failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetPassword implements session.AuthBackend.
func (b *HTTPBackend) ResetPassword(ctx context.Context, token, newPassword string) (*session.MessageResult, error) {
	body := map[string]string{"token": token, "newPassword": newPassword}

	var result session.MessageResult
	if err := b.do(ctx, http.MethodPost, endpointResetPassword, body, false, "Password reset failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCurrentProfile implements session.AuthBackend.
func (b *HTTPBackend) GetCurrentProfile(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := b.do(ctx, http.MethodGet, endpointUserProfile, nil, true, "Profile fetch failed", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// apiEnvelope is the service's response wrapper. Some endpoints omit the
// success flag and return the payload directly; a 2xx status stands in
// for success there.
type apiEnvelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body any, authed bool, fallback string, out any) error {
	req, err := b.newRequest(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	b.logger.Debug("auth api request %s %s", method, path)

	res, err := b.client.Do(req)
	if err != nil {
		b.logger.Error("auth api transport error: %s", err)
		return session.TransportError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return session.TransportError(err)
	}

	var envelope apiEnvelope
	decodable := json.Unmarshal(raw, &envelope) == nil

	if authed && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden) {
		// The service rejected the stored credential: the session is over.
		return session.ErrAuthorizationDenied.WithMetadata(map[string]any{
			"status": res.StatusCode,
			"path":   path,
		})
	}

	rejected := res.StatusCode >= http.StatusBadRequest ||
		(decodable && envelope.Success != nil && !*envelope.Success)
	if rejected {
		message := ""
		if decodable {
			message = envelope.Message
		}
		b.logger.Warn("auth api rejected request %s: status=%d message=%q", path, res.StatusCode, message)
		return session.BackendError(message, fallback)
	}

	if out == nil {
		return nil
	}

	payload := raw
	if decodable && len(envelope.Data) > 0 {
		payload = envelope.Data
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unexpected response from authentication service").
			WithTextCode(session.TextCodeTransportFailure)
	}

	// Surface the envelope message on results that carry one.
	if msg, ok := out.(*session.MessageResult); ok && msg.Message == "" && decodable {
		msg.Message = envelope.Message
	}
	if reg, ok := out.(*session.RegistrationResult); ok && reg.Message == "" && decodable {
		reg.Message = envelope.Message
	}

	return nil
}

func (b *HTTPBackend) newRequest(ctx context.Context, method, path string, body any, authed bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		token, err := b.creds.ValidToken(ctx)
		if err != nil {
			b.logger.Error("credential read error: %s", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}
