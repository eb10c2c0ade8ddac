// Package backendtest provides an in-memory session.AuthBackend for
// integration tests and local demos. It keeps users in a map, checks
// passwords with bcrypt, and mints real JWTs so identity decoding works
// exactly as it does against the production service.
package backendtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	session "github.com/urbanease/go-session"
)

const signingSecret = "backendtest-signing-secret"

// Account is a registered user plus its credential state.
type Account struct {
	User         session.User
	PasswordHash []byte
	Verified     bool
	VerifyToken  string
	ResetToken   string
}

// Backend is the in-memory fake. Zero value is not usable; call New.
type Backend struct {
	mu        sync.Mutex
	accounts  map[string]*Account // keyed by email
	refresh   map[string]string   // refresh token -> email
	lastLogin string
	tokenTTL  time.Duration
	now       func() time.Time

	// FailLogout makes Logout return a transport error, for exercising
	// best-effort logout paths.
	FailLogout bool
	// FailProfile makes GetCurrentProfile return a transport error, for
	// exercising degraded bootstrap.
	FailProfile bool
}

var _ session.AuthBackend = (*Backend)(nil)

// New builds an empty backend with a 15 minute access token TTL.
func New() *Backend {
	return &Backend{
		accounts: map[string]*Account{},
		refresh:  map[string]string{},
		tokenTTL: 15 * time.Minute,
		now:      time.Now,
	}
}

// WithTokenTTL overrides the access token lifetime.
func (b *Backend) WithTokenTTL(ttl time.Duration) *Backend {
	if ttl > 0 {
		b.tokenTTL = ttl
	}
	return b
}

// WithClock overrides the time source.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	if now != nil {
		b.now = now
	}
	return b
}

// Seed registers a pre-verified account directly, bypassing the
// registration flow. Returns the account for further mutation.
func (b *Backend) Seed(email, password string, role session.Role) *Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("backendtest: bcrypt seed failure: %s", err))
	}

	account := &Account{
		User: session.User{
			ID:            session.ID(uuid.NewString()),
			Email:         email,
			Role:          role,
			EmailVerified: true,
		},
		PasswordHash: hash,
		Verified:     true,
	}

	b.mu.Lock()
	b.accounts[email] = account
	b.mu.Unlock()

	return account
}

// Login implements session.AuthBackend.
func (b *Backend) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[email]
	if !ok {
		return nil, session.BackendError("Invalid email or password", "Login failed")
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, session.BackendError("Invalid email or password", "Login failed")
	}

	if !account.Verified {
		return nil, session.BackendError("Please verify your email before logging in", "Login failed")
	}

	grant, err := b.mintLocked(account)
	if err != nil {
		return nil, err
	}

	user := account.User
	return &session.LoginResult{User: &user, TokenGrant: *grant}, nil
}

// RegisterCustomer implements session.AuthBackend.
func (b *Backend) RegisterCustomer(ctx context.Context, payload session.CustomerRegistration) (*session.RegistrationResult, error) {
	user := session.User{
		Email:     payload.Email,
		Role:      session.RoleCustomer,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Customer:  &session.CustomerProfile{},
	}
	return b.register(user, payload.Password)
}

// RegisterBusiness implements session.AuthBackend.
func (b *Backend) RegisterBusiness(ctx context.Context, payload session.BusinessRegistration) (*session.RegistrationResult, error) {
	user := session.User{
		Email:     payload.Email,
		Role:      session.RoleBusiness,
		FirstName: payload.OwnerFirstName,
		LastName:  payload.OwnerLastName,
		Phone:     payload.Phone,
		Business:  &session.BusinessProfile{BusinessName: payload.BusinessName},
	}
	return b.register(user, payload.Password)
}

func (b *Backend) register(user session.User, password string) (*session.RegistrationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[user.Email]; exists {
		return nil, session.BackendError("An account with this email already exists", "Registration failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, session.TransportError(err)
	}

	user.ID = session.ID(uuid.NewString())
	b.accounts[user.Email] = &Account{
		User:         user,
		PasswordHash: hash,
		VerifyToken:  uuid.NewString(),
	}

	return &session.RegistrationResult{
		Message: "Registration successful. Please check your email to verify your account.",
		UserID:  user.ID,
	}, nil
}

// Logout implements session.AuthBackend.
func (b *Backend) Logout(ctx context.Context) error {
	if b.FailLogout {
		return session.TransportError(fmt.Errorf("logout endpoint unavailable"))
	}
	return nil
}

// RefreshToken implements session.AuthBackend.
func (b *Backend) RefreshToken(ctx context.Context, refreshToken string) (*session.TokenGrant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.refresh[refreshToken]
	if !ok {
		return nil, session.ErrAuthorizationDenied.WithMetadata(map[string]any{
			"reason": "unknown refresh token",
		})
	}

	account := b.accounts[email]
	delete(b.refresh, refreshToken)

	return b.mintLocked(account)
}

// VerifyEmail implements session.AuthBackend.
func (b *Backend) VerifyEmail(ctx context.Context, token string) (*session.MessageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, account := range b.accounts {
		if account.VerifyToken != "" && account.VerifyToken == token {
			account.Verified = true
			account.User.EmailVerified = true
			account.VerifyToken = ""
			return &session.MessageResult{Message: "Email verified successfully"}, nil
		}
	}

	return nil, session.BackendError("Invalid or expired verification token", "Email verification failed")
}

// ResendVerification implements session.AuthBackend.
func (b *Backend) ResendVerification(ctx context.Context, email string) (*session.MessageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[email]
	if !ok || account.Verified {
		// Do not leak account existence.
		return &session.MessageResult{Message: "If the account exists, a verification email has been sent"}, nil
	}

	account.VerifyToken = uuid.NewString()
	return &session.MessageResult{Message: "Verification email sent"}, nil
}

// RequestPasswordReset implements session.AuthBackend.
func (b *Backend) RequestPasswordReset(ctx context.Context, email string) (*session.MessageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account, ok := b.accounts[email]; ok {
		account.ResetToken = uuid.NewString()
	}

	return &session.MessageResult{Message: "If the account exists, a reset email has been sent"}, nil
}

// ResetPassword implements session.AuthBackend.
func (b *Backend) ResetPassword(ctx context.Context, token, newPassword string) (*session.MessageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, account := range b.accounts {
		if account.ResetToken != "" && account.ResetToken == token {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
			if err != nil {
				return nil, session.TransportError(err)
			}
			account.PasswordHash = hash
			account.ResetToken = ""
			return &session.MessageResult{Message: "Password reset successfully"}, nil
		}
	}

	return nil, session.BackendError("Invalid or expired reset token", "Password reset failed")
}

// GetCurrentProfile implements session.AuthBackend. The fake has no
// request credential to inspect, so it returns the most recently minted
// identity's account; tests that need a specific user should seed one.
func (b *Backend) GetCurrentProfile(ctx context.Context) (*session.User, error) {
	if b.FailProfile {
		return nil, session.TransportError(fmt.Errorf("profile endpoint unavailable"))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lastLogin == "" {
		return nil, session.ErrAuthorizationDenied.WithMetadata(map[string]any{
			"reason": "no active session",
		})
	}

	account, ok := b.accounts[b.lastLogin]
	if !ok {
		return nil, session.ErrAuthorizationDenied
	}

	user := account.User
	return &user, nil
}

func (b *Backend) mintLocked(account *Account) (*session.TokenGrant, error) {
	now := b.now()
	claims := jwt.MapClaims{
		"id":    string(account.User.ID),
		"sub":   string(account.User.ID),
		"email": account.User.Email,
		"role":  string(account.User.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(b.tokenTTL).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		return nil, session.TransportError(err)
	}

	refresh := uuid.NewString()
	b.refresh[refresh] = account.User.Email
	b.lastLogin = account.User.Email

	return &session.TokenGrant{
		AccessToken:  access,
		ExpiresIn:    int(b.tokenTTL / time.Second),
		RefreshToken: refresh,
	}, nil
}
