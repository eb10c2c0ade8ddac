package session

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

// ErrNoCredential is returned when durable storage holds no usable credential
var ErrNoCredential = stderrors.New("no stored credential")

// ErrUnableToDecodeToken is returned when a stored token cannot be parsed
var ErrUnableToDecodeToken = stderrors.New("unable to decode token")

// ErrNotAuthenticated is returned by operations that require a session
var ErrNotAuthenticated = stderrors.New("not authenticated")

const (
	TextCodeBackendRejected     = "backend_rejected"
	TextCodeTransportFailure    = "transport_failure"
	TextCodeAuthorizationDenied = "authorization_denied"
	TextCodeOperationInFlight   = "operation_in_flight"
	TextCodeInvalidTransition   = "invalid_session_transition"
)

// ErrAuthorizationDenied is returned when the backend rejects the stored
// credential on an authenticated call. The manager treats it as an
// implicit session end.
var ErrAuthorizationDenied = errors.New("authorization denied", errors.CategoryAuth).
	WithTextCode(TextCodeAuthorizationDenied).
	WithCode(errors.CodeUnauthorized)

// ErrOperationInFlight is returned when a login or refresh is attempted
// while a previous one has not settled.
var ErrOperationInFlight = errors.New("session operation already in flight", errors.CategoryConflict).
	WithTextCode(TextCodeOperationInFlight).
	WithCode(errors.CodeConflict)

// ErrInvalidTransition is returned when a requested session state change
// is not allowed by the lifecycle graph.
var ErrInvalidTransition = errors.New("invalid session state transition", errors.CategoryInternal).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeInternal)

// BackendError builds the error for a backend-reported failure, keeping
// the backend's message verbatim since it is typically actionable.
func BackendError(message, fallback string) *errors.Error {
	if message == "" {
		message = fallback
	}
	return errors.New(message, errors.CategoryAuth).
		WithTextCode(TextCodeBackendRejected).
		WithCode(errors.CodeBadRequest)
}

// TransportError wraps a network-level failure with a generic
// retry-suggesting message.
func TransportError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryOperation, "authentication service unreachable, please retry").
		WithTextCode(TextCodeTransportFailure)
}

// IsAuthorizationDenied reports whether err represents the backend
// rejecting an otherwise-valid looking credential.
func IsAuthorizationDenied(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeAuthorizationDenied
	}
	return false
}

// UserMessage extracts the human-readable message carried by err, falling
// back to def for errors that carry none.
func UserMessage(err error, def string) string {
	if err == nil {
		return def
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return def
}
