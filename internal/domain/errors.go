package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")

	// Signup and verification flow.
	ErrValidation       = errors.New("validation failed")
	ErrStorage          = errors.New("pending signup storage failure")
	ErrNotification     = errors.New("verification email not delivered")
	ErrInvalidCode      = errors.New("invalid or expired verification code")
	ErrExpiredCode      = errors.New("verification code has expired")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrDuplicateAccount = errors.New("email already registered")
	ErrProvisioning     = errors.New("account provisioning failed")
)

// ValidationError carries a client-facing message and matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError { return &ValidationError{Msg: msg} }

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
