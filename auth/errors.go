package auth

import (
	"fmt"
	"net/http"
)

// Code identifies an authentication or authorization failure kind.
// The set is closed: the HTTP translation layer matches it exhaustively.
type Code string

const (
	CodeTokenMissing            Code = "token_missing"
	CodeTokenExpired            Code = "token_expired"
	CodeTokenInvalid            Code = "token_invalid"
	CodeIssuerInvalid           Code = "issuer_invalid"
	CodeAuthFailed              Code = "auth_failed"
	CodeInsufficientPermissions Code = "insufficient_permissions"
)

// Error is a structured authentication/authorization error. Authentication
// codes always map to 401; insufficient_permissions maps to 403 and implies
// authentication already succeeded.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two auth errors by code, so sentinel comparisons with
// errors.Is work for wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Status returns the HTTP status code for this error.
func (e *Error) Status() int {
	if e.Code == CodeInsufficientPermissions {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// NewError creates an auth error wrapping an underlying cause.
func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrTokenMissing  = NewError(CodeTokenMissing, "authentication required", nil)
	ErrTokenExpired  = NewError(CodeTokenExpired, "access token has expired", nil)
	ErrTokenInvalid  = NewError(CodeTokenInvalid, "invalid access token", nil)
	ErrIssuerInvalid = NewError(CodeIssuerInvalid, "invalid token issuer", nil)
	ErrAuthFailed    = NewError(CodeAuthFailed, "authentication failed", nil)

	ErrInsufficientPermissions = NewError(CodeInsufficientPermissions, "insufficient permissions", nil)
)
