package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthBackend is the boundary contract to the remote authentication
// service. The transport behind it is out of scope for this package;
// see the client subpackage for the HTTP implementation.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RegisterCustomer(ctx context.Context, payload CustomerRegistration) (*RegistrationResult, error)
	RegisterBusiness(ctx context.Context, payload BusinessRegistration) (*RegistrationResult, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error)
	VerifyEmail(ctx context.Context, token string) (*MessageResult, error)
	ResendVerification(ctx context.Context, email string) (*MessageResult, error)
	RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*MessageResult, error)
	GetCurrentProfile(ctx context.Context) (*User, error)
}

// CredentialStore persists the access credential across application
// restarts. Implementations must be the sole owner of their storage keys;
// no other component reads them directly.
type CredentialStore interface {
	// Store computes the absolute expiry instant from expiresIn and writes
	// the credential. Storage failures should be returned, not panicked;
	// callers degrade to "re-login required".
	Store(ctx context.Context, accessToken string, expiresIn time.Duration, refreshToken string) error
	// ValidToken returns the stored access token, or "" when no credential
	// is stored or the stored one is within the expiry safety buffer. An
	// expired credential is cleared as a side effect of the read.
	ValidToken(ctx context.Context) (string, error)
	// RefreshToken returns the stored refresh token, or "" when absent.
	RefreshToken(ctx context.Context) (string, error)
	// Clear removes all stored credential values. Idempotent.
	Clear(ctx context.Context) error
}

// Config holds session options
type Config interface {
	GetLoginPath() string
	GetRegisterPath() string
	GetHomePath() string
	GetCustomerLandingPath() string
	GetBusinessLandingPath() string
	GetRejectedRouteKey() string
}

// NoopLogger discards all log output.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
