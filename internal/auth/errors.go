package auth

import "errors"

// Errors returned at the credential and authorization boundary. They never
// carry the underlying cause; callers only learn that the request was refused.
var (
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrAccessDenied         = errors.New("access denied")
)

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrForbidden    = errors.New("auth: forbidden")
)

// Access validation errors name the violated rule.
var (
	ErrUserInactive    = errors.New("user is inactive or blocked")
	ErrSystemInactive  = errors.New("system is inactive")
	ErrNoBinding       = errors.New("user is not bound to system")
	ErrBindingInactive = errors.New("user binding is inactive or blocked")
)

// ErrInvalidPayload reports a token payload that breaks a structural invariant.
var ErrInvalidPayload = errors.New("auth: invalid token payload")
