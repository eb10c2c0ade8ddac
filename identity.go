package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the minimal user data decodable from a credential without a
// network call. It is display-only: the token signature is NOT verified
// here (the backend is the issuing authority), so an Identity must never
// authorize a sensitive action on its own.
type Identity struct {
	ID        ID
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type identityClaims struct {
	jwt.RegisteredClaims
	UID   ID     `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// DecodeIdentity extracts the fallback Identity from a bearer token. A
// malformed token yields ErrUnableToDecodeToken, which callers treat as
// "no usable identity".
func DecodeIdentity(token string) (*Identity, error) {
	claims := &identityClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrUnableToDecodeToken
	}

	id := claims.UID
	if id == "" {
		id = ID(claims.RegisteredClaims.Subject)
	}
	if id == "" {
		return nil, ErrUnableToDecodeToken
	}

	identity := &Identity{
		ID:    id,
		Email: claims.Email,
		Role:  Role(claims.Role),
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		identity.IssuedAt = claims.RegisteredClaims.IssuedAt.Time
	}
	if claims.RegisteredClaims.ExpiresAt != nil {
		identity.ExpiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	return identity, nil
}

// User converts the identity into a degraded User value so bootstrap can
// authenticate without blocking on the profile fetch.
func (i *Identity) User() *User {
	if i == nil {
		return nil
	}
	return &User{
		ID:       i.ID,
		Email:    i.Email,
		Role:     i.Role,
		Degraded: true,
	}
}
