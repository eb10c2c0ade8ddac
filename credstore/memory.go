package credstore

import (
	"context"
	"sync"
	"time"

	session "github.com/urbanease/go-session"
)

// MemoryStore keeps the credential in process memory. The session is
// gone when the process exits; useful for tests and throwaway tooling.
type MemoryStore struct {
	mu   sync.Mutex
	cred *session.Credential
	now  func() time.Time
}

var _ session.CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock injects a custom clock (useful for tests).
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Store implements session.CredentialStore.
func (s *MemoryStore) Store(_ context.Context, accessToken string, expiresIn time.Duration, refreshToken string) error {
	cred := session.NewCredential(accessToken, expiresIn, refreshToken, s.now())

	s.mu.Lock()
	s.cred = &cred
	s.mu.Unlock()

	return nil
}

// ValidToken implements session.CredentialStore with lazy purge-on-read.
func (s *MemoryStore) ValidToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil {
		return "", nil
	}

	if !s.cred.Valid(s.now()) {
		s.cred = nil
		return "", nil
	}

	return s.cred.AccessToken, nil
}

// RefreshToken implements session.CredentialStore.
func (s *MemoryStore) RefreshToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil {
		return "", nil
	}
	return s.cred.RefreshToken, nil
}

// Clear implements session.CredentialStore. Idempotent.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()
	return nil
}
