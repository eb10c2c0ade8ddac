package session

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse national-format phone
// numbers on registration payloads.
var DefaultPhoneRegion = "IN"

// TokenGrant is issued by the backend on login and refresh.
type TokenGrant struct {
	AccessToken  string `json:"accessToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LoginResult is the structured login response, returned to callers so a
// form can make a role-based redirect decision.
type LoginResult struct {
	User *User `json:"user"`
	TokenGrant
}

// RegistrationResult routes the caller to a "registration succeeded"
// screen; registration does not authenticate.
type RegistrationResult struct {
	Message string `json:"message,omitempty"`
	UserID  ID     `json:"userId,omitempty"`
}

// MessageResult carries the backend message of a stateless operation
// (email verification, password reset).
type MessageResult struct {
	Message string `json:"message,omitempty"`
}

// LoginRequest is the credentials payload for Manager.Login
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

// CustomerRegistration is the sign-up payload for customers
type CustomerRegistration struct {
	FirstName       string `json:"firstName" form:"first_name"`
	LastName        string `json:"lastName" form:"last_name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone_number"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirm_password"`
}

// Validate will validate the payload
func (r CustomerRegistration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidPhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// BusinessRegistration is the sign-up payload for businesses
type BusinessRegistration struct {
	BusinessName    string   `json:"businessName" form:"business_name"`
	OwnerFirstName  string   `json:"ownerFirstName" form:"owner_first_name"`
	OwnerLastName   string   `json:"ownerLastName" form:"owner_last_name"`
	Email           string   `json:"email" form:"email"`
	Phone           string   `json:"phone" form:"phone_number"`
	Description     string   `json:"description" form:"description"`
	ServiceTypes    []string `json:"serviceTypes" form:"service_types"`
	Password        string   `json:"password" form:"password"`
	ConfirmPassword string   `json:"confirmPassword" form:"confirm_password"`
}

// Validate will validate the payload
func (r BusinessRegistration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BusinessName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.OwnerFirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.OwnerLastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidPhoneNumber)),
		validation.Field(&r.ServiceTypes, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// ValidPhoneNumber is a validation rule that parses the value against
// DefaultPhoneRegion.
func ValidPhoneNumber(value any) error {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return fmt.Errorf("must be a phone number")
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

// ValidateStringEquals builds a rule asserting the value equals expected
func ValidateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("values do not match")
		}
		return nil
	}
}
