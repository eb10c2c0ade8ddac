package session

import (
	"strconv"
	"strings"
	"time"
)

// ID tolerates both numeric and string identifiers on the wire; the
// backend has shipped both shapes over time.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*id = ID(s)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

// User is the authoritative profile fetched from the backend. It is a
// superset of Identity; Degraded marks a value hydrated from token
// claims only, which must never gate privileged operations.
type User struct {
	ID            ID               `json:"id,omitempty"`
	Email         string           `json:"email,omitempty"`
	Role          Role             `json:"role,omitempty"`
	FirstName     string           `json:"firstName,omitempty"`
	LastName      string           `json:"lastName,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	EmailVerified bool             `json:"isEmailVerified,omitempty"`
	Customer      *CustomerProfile `json:"customerProfile,omitempty"`
	Business      *BusinessProfile `json:"businessProfile,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time       `json:"updatedAt,omitempty"`
	Degraded      bool             `json:"-"`
}

// HasRole checks if the user holds the given role
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}

// HasAnyRole checks if the user holds any of the given roles
func (u *User) HasAnyRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// FullName joins first and last name, tolerating missing parts
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CustomerProfile is the customer-specific profile sub-object
type CustomerProfile struct {
	Addresses        []Address `json:"addresses,omitempty"`
	DefaultAddressID ID        `json:"defaultAddressId,omitempty"`
	WalletBalance    float64   `json:"walletBalance,omitempty"`
}

// Address is a customer service address
type Address struct {
	ID         ID     `json:"id,omitempty"`
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// BusinessProfile is the business-specific profile sub-object
type BusinessProfile struct {
	BusinessName string   `json:"businessName,omitempty"`
	Description  string   `json:"description,omitempty"`
	ServiceTypes []string `json:"serviceTypes,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Verified     bool     `json:"isVerified,omitempty"`
}
