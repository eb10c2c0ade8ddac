package session

import (
	"context"
	"sync"
	"time"
)

// Manager is the single source of truth for "who is logged in" and the
// only component that talks to the AuthBackend. All SessionState writes
// happen here; guards and templates are read-only consumers.
type Manager struct {
	mu       sync.Mutex
	status   Status
	user     *User
	err      string
	inflight bool

	backend      AuthBackend
	creds        CredentialStore
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewManager returns a Manager in the uninitialized state. Call
// Bootstrap once at application start.
func NewManager(backend AuthBackend, creds CredentialStore) *Manager {
	return &Manager{
		status:       StatusUninitialized,
		backend:      backend,
		creds:        creds,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for emitting session events.
func (m *Manager) WithActivitySink(sink ActivitySink) *Manager {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	if clock != nil {
		m.now = clock
	}
	return m
}

// Snapshot returns a read-only copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, User: m.user, Err: m.err}
}

// Bootstrap restores the session from durable storage. It never fails
// outward: there is no caller present to catch an error at application
// start, so every path settles into Anonymous or Authenticated.
func (m *Manager) Bootstrap(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.status != StatusUninitialized {
		m.logger.Warn("Bootstrap called twice, ignoring")
		snap := Snapshot{Status: m.status, User: m.user, Err: m.err}
		m.mu.Unlock()
		return snap
	}
	m.setStatusLocked(StatusBootstrapping)
	m.mu.Unlock()

	token, err := m.creds.ValidToken(ctx)
	if err != nil {
		m.logger.Error("Bootstrap credential read error: %s", err)
	}
	if token == "" {
		return m.settle(StatusAnonymous, nil, "")
	}

	identity, err := DecodeIdentity(token)
	if err != nil {
		// Malformed stored token: no usable identity, equivalent to anonymous.
		m.logger.Warn("Bootstrap token decode failed: %s", err)
		if clearErr := m.creds.Clear(ctx); clearErr != nil {
			m.logger.Error("Bootstrap credential clear error: %s", clearErr)
		}
		return m.settle(StatusAnonymous, nil, "")
	}

	profile, err := m.backend.GetCurrentProfile(ctx)
	if err == nil && profile != nil {
		return m.settle(StatusAuthenticated, profile, "")
	}

	if IsAuthorizationDenied(err) {
		// The backend no longer accepts the stored credential; the session
		// ended while we were away. Redirect happens silently via guards.
		if clearErr := m.creds.Clear(ctx); clearErr != nil {
			m.logger.Error("Bootstrap credential clear error: %s", clearErr)
		}
		return m.settle(StatusAnonymous, nil, "")
	}

	// Transient hiccup: authenticate with the token-decoded identity so
	// the UI is not blocked, instead of forcing a logout.
	m.logger.Warn("Bootstrap profile fetch failed, using token identity: %s", err)
	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventBootstrapDegraded,
		UserID:    identity.ID,
		Metadata:  map[string]any{"error": err.Error()},
	})
	return m.settle(StatusAuthenticated, identity.User(), "")
}

// Login authenticates against the backend. On success the credential is
// persisted before the user is set, and the structured result is returned
// so the caller can make a role-based redirect decision. On failure the
// prior user value is left untouched and the error is re-raised.
func (m *Manager) Login(ctx context.Context, payload LoginRequest) (*LoginResult, error) {
	if err := payload.Validate(); err != nil {
		m.recordError(UserMessage(err, "Login failed"))
		return nil, err
	}

	if err := m.beginExclusive(); err != nil {
		return nil, err
	}
	defer m.endExclusive()

	result, err := m.backend.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		m.logger.Error("Login error: %s", err)
		m.recordError(UserMessage(err, "Login failed"))
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": payload.Email, "error": err.Error()},
		})
		return nil, err
	}

	if result == nil || result.User == nil {
		// A grant without a user cannot authenticate: StatusAuthenticated
		// requires a populated user.
		err := BackendError("", "Login failed")
		m.logger.Error("Login response missing user")
		m.recordError(err.Message)
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": payload.Email, "error": "login response missing user"},
		})
		return nil, err
	}

	if storeErr := m.storeGrant(ctx, result.TokenGrant); storeErr != nil {
		// Loss of persistence degrades to "re-login required", not a crash.
		m.logger.Error("Login credential store error: %s", storeErr)
	}

	m.mu.Lock()
	m.setStatusLocked(StatusAuthenticated)
	m.user = result.User
	m.err = ""
	m.mu.Unlock()

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    result.User.ID,
		ToStatus:  StatusAuthenticated,
	})

	return result, nil
}

// Logout ends the session. The backend call is best-effort: local state
// and stored credentials are always cleared, because a user must be able
// to leave a session even when the network is down. The two cleanup steps
// run unconditionally so a backend error cannot skip either.
func (m *Manager) Logout(ctx context.Context) error {
	var userID ID
	if u := m.CurrentUser(); u != nil {
		userID = u.ID
	}

	if err := m.backend.Logout(ctx); err != nil {
		m.logger.Warn("Logout backend error (continuing locally): %s", err)
	}

	clearErr := m.clearLocal(ctx)

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    userID,
		ToStatus:  StatusAnonymous,
	})

	return clearErr
}

// RegisterCustomer delegates to the backend. Registration and login are
// distinct steps: the result routes the caller to a "registration
// succeeded" screen, not to a profile.
func (m *Manager) RegisterCustomer(ctx context.Context, payload CustomerRegistration) (*RegistrationResult, error) {
	if err := payload.Validate(); err != nil {
		m.recordError(UserMessage(err, "Customer registration failed"))
		return nil, err
	}

	result, err := m.backend.RegisterCustomer(ctx, payload)
	if err != nil {
		m.logger.Error("RegisterCustomer error: %s", err)
		m.recordError(UserMessage(err, "Customer registration failed"))
		return nil, err
	}

	m.recordError("")
	return result, nil
}

// RegisterBusiness delegates to the backend; see RegisterCustomer.
func (m *Manager) RegisterBusiness(ctx context.Context, payload BusinessRegistration) (*RegistrationResult, error) {
	if err := payload.Validate(); err != nil {
		m.recordError(UserMessage(err, "Business registration failed"))
		return nil, err
	}

	result, err := m.backend.RegisterBusiness(ctx, payload)
	if err != nil {
		m.logger.Error("RegisterBusiness error: %s", err)
		m.recordError(UserMessage(err, "Business registration failed"))
		return nil, err
	}

	m.recordError("")
	return result, nil
}

// VerifyEmail is a stateless pass-through; it does not mutate the session.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (*MessageResult, error) {
	return m.backend.VerifyEmail(ctx, token)
}

// ResendVerification is a stateless pass-through.
func (m *Manager) ResendVerification(ctx context.Context, email string) (*MessageResult, error) {
	return m.backend.ResendVerification(ctx, email)
}

// RequestPasswordReset is a stateless pass-through.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	return m.backend.RequestPasswordReset(ctx, email)
}

// ResetPassword is a stateless pass-through.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResult, error) {
	return m.backend.ResetPassword(ctx, token, newPassword)
}

// RefreshSession exchanges the stored refresh credential for a new token
// grant. On any failure the session is treated as ended.
func (m *Manager) RefreshSession(ctx context.Context) error {
	if err := m.beginExclusive(); err != nil {
		return err
	}
	defer m.endExclusive()

	refresh, err := m.creds.RefreshToken(ctx)
	if err != nil {
		m.logger.Error("RefreshSession credential read error: %s", err)
	}
	if refresh == "" {
		m.expire(ctx)
		return ErrNoCredential
	}

	grant, err := m.backend.RefreshToken(ctx, refresh)
	if err != nil {
		m.logger.Warn("RefreshSession rejected, ending session: %s", err)
		m.emit(ctx, ActivityEvent{
			EventType: ActivityEventRefreshFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		m.expire(ctx)
		return err
	}

	if grant.RefreshToken == "" {
		grant.RefreshToken = refresh
	}
	if storeErr := m.storeGrant(ctx, *grant); storeErr != nil {
		m.logger.Error("RefreshSession credential store error: %s", storeErr)
	}

	var userID ID
	if u := m.CurrentUser(); u != nil {
		userID = u.ID
	}
	m.emit(ctx, ActivityEvent{EventType: ActivityEventRefreshSuccess, UserID: userID})

	return nil
}

// UpdateUserData re-fetches the profile after the user edits it elsewhere
// in the app, keeping the Manager authoritative without every editor
// needing to know the full User shape. No-op while anonymous.
func (m *Manager) UpdateUserData(ctx context.Context) error {
	if !m.IsAuthenticated() {
		return nil
	}

	profile, err := m.backend.GetCurrentProfile(ctx)
	if err != nil {
		if IsAuthorizationDenied(err) {
			// Implicit session end: clear once, never re-enter the cycle.
			m.expire(ctx)
			return err
		}
		m.logger.Error("UpdateUserData profile fetch error: %s", err)
		return err
	}

	m.mu.Lock()
	if m.status == StatusAuthenticated {
		m.user = profile
	}
	m.mu.Unlock()

	return nil
}

// Token returns the currently valid access token, or "".
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.creds.ValidToken(ctx)
}

// ClearSession drops local state and stored credentials without calling
// the backend.
func (m *Manager) ClearSession(ctx context.Context) error {
	return m.clearLocal(ctx)
}

// IsAuthenticated reports whether a user is present.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().Authenticated()
}

// CurrentUser returns the session user, nil while anonymous.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// HasRole checks if the session user holds the given role.
func (m *Manager) HasRole(role Role) bool {
	return m.CurrentUser().HasRole(role)
}

// HasAnyRole checks if the session user holds any of the given roles.
func (m *Manager) HasAnyRole(roles ...Role) bool {
	return m.CurrentUser().HasAnyRole(roles...)
}

func (m *Manager) IsCustomer() bool { return m.HasRole(RoleCustomer) }
func (m *Manager) IsBusiness() bool { return m.HasRole(RoleBusiness) }
func (m *Manager) IsAdmin() bool    { return m.HasRole(RoleAdmin) }

// expire ends the session silently: no error flash, since "your session
// naturally ended" is not "you did something wrong".
func (m *Manager) expire(ctx context.Context) {
	var userID ID
	if u := m.CurrentUser(); u != nil {
		userID = u.ID
	}

	if err := m.clearLocal(ctx); err != nil {
		m.logger.Error("Session expiry cleanup error: %s", err)
	}

	m.emit(ctx, ActivityEvent{
		EventType: ActivityEventExpired,
		UserID:    userID,
		ToStatus:  StatusAnonymous,
	})
}

func (m *Manager) clearLocal(ctx context.Context) error {
	clearErr := m.creds.Clear(ctx)
	if clearErr != nil {
		m.logger.Error("Credential clear error: %s", clearErr)
	}

	m.mu.Lock()
	m.setStatusLocked(StatusAnonymous)
	m.user = nil
	m.err = ""
	m.mu.Unlock()

	return clearErr
}

func (m *Manager) storeGrant(ctx context.Context, grant TokenGrant) error {
	expiresIn := time.Duration(grant.ExpiresIn) * time.Second
	return m.creds.Store(ctx, grant.AccessToken, expiresIn, grant.RefreshToken)
}

func (m *Manager) settle(status Status, user *User, errMsg string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(status)
	m.user = user
	m.err = errMsg
	return Snapshot{Status: m.status, User: m.user, Err: m.err}
}

func (m *Manager) recordError(msg string) {
	m.mu.Lock()
	m.err = msg
	m.mu.Unlock()
}

// beginExclusive rejects overlapping login/refresh attempts instead of
// letting last-write-wins races decide the session user.
func (m *Manager) beginExclusive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight {
		return ErrOperationInFlight
	}
	m.inflight = true
	m.err = ""
	return nil
}

func (m *Manager) endExclusive() {
	m.mu.Lock()
	m.inflight = false
	m.mu.Unlock()
}

func (m *Manager) setStatusLocked(to Status) {
	if !canTransition(m.status, to) {
		// The transition graph is fixed at compile time, so a violation is
		// a programming error worth surfacing loudly in logs.
		m.logger.Error("invalid session transition from=%s to=%s", m.status, to)
	}
	m.status = to
}

func (m *Manager) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
