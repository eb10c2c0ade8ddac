package session

import "time"

// ExpiryBuffer is the safety margin subtracted from a credential's expiry
// instant, guarding against a token that expires mid-flight on a network
// call.
const ExpiryBuffer = 60 * time.Second

// Credential is an opaque bearer token plus its absolute expiry instant,
// computed once at issuance time from the relative expiresIn supplied by
// the backend.
type Credential struct {
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"` // epoch milliseconds
	RefreshToken string `json:"refresh_token,omitempty"`
}

// NewCredential computes the absolute expiry from the issuance instant.
func NewCredential(accessToken string, expiresIn time.Duration, refreshToken string, now time.Time) Credential {
	return Credential{
		AccessToken:  accessToken,
		ExpiresAt:    now.Add(expiresIn).UnixMilli(),
		RefreshToken: refreshToken,
	}
}

// Valid reports whether the credential can still back a network call:
// now < expiry - buffer.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiresAt == 0 {
		return false
	}
	return now.UnixMilli() < c.ExpiresAt-ExpiryBuffer.Milliseconds()
}

// Expiry returns the absolute expiry instant.
func (c Credential) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}
