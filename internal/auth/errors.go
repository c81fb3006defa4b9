package auth

import (
	"errors"
	"fmt"
)

// Error codes returned to API clients.
const (
	CodeInvalidEmail       = "auth/invalid-email"
	CodeInvalidPhone       = "auth/invalid-phone"
	CodeWeakPassword       = "auth/weak-password"
	CodePasswordMismatch   = "auth/password-mismatch"
	CodeEmailAlreadyInUse  = "auth/email-already-in-use"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeTooManyRequests    = "auth/too-many-requests"
	CodeInvalidToken       = "auth/invalid-token"
	CodeUnauthenticated    = "auth/unauthenticated"
	CodePasskeyUnavailable = "auth/passkey-unavailable"
)

// Error is an auth failure the client can act on.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// CodeOf returns the auth error code in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
