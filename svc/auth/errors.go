package auth

import "errors"

var (
	ErrNotAuthenticated = errors.New("auth.not_authenticated")
	ErrStaleSession     = errors.New("auth.stale_session")
	ErrInvalidRole      = errors.New("auth.invalid_role")
)

// User-facing messages.
const (
	MsgLoginFailed         = "Login failed"
	MsgRegisterFailed      = "Registration failed"
	MsgSessionExpired      = "Session expired. Please login again."
	MsgIdentityUnavailable = "We could not load your profile. Please sign in again."
	MsgRegistered          = "Registration successful. Please sign in."
)
