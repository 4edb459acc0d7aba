// internal/identity/errors.go
package identity

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeEmailInUse      Code = "auth/email-already-in-use"
	CodeWeakPassword    Code = "auth/weak-password"
	CodeInvalidEmail    Code = "auth/invalid-email"
	CodeUserNotFound    Code = "auth/user-not-found"
	CodeWrongPassword   Code = "auth/wrong-password"
	CodeTooManyRequests Code = "auth/too-many-requests"
	CodeUserDisabled    Code = "auth/user-disabled"
	CodeInvalidToken    Code = "auth/invalid-token"
)

// Error is a provider failure carrying one of the known codes.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code carried by err, or "" for unrecognised errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var messages = map[Code]string{
	CodeEmailInUse:      "An account with this email already exists",
	CodeWeakPassword:    "Password must be at least 6 characters",
	CodeInvalidEmail:    "Please enter a valid email address",
	CodeUserNotFound:    "No account found with this email",
	CodeWrongPassword:   "Incorrect password",
	CodeTooManyRequests: "Too many failed attempts. Please try again later",
	CodeUserDisabled:    "This account has been disabled",
	CodeInvalidToken:    "Your session has expired. Please sign in again",
}

// Message maps err to its user-facing text, falling back to fallback for
// anything without a known code.
func Message(err error, fallback string) string {
	if msg, ok := messages[CodeOf(err)]; ok {
		return msg
	}
	return fallback
}
