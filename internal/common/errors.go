// Package common defines shared constants and sentinel errors used across
// client and server layers of FaceLock. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrStateConflict  = errors.New("state conflict")

	// Validation errors.
	ErrorValidation   = errors.New("validation error")
	ErrorNotEnrolled  = errors.New("face reference not enrolled")
	ErrorInvalidProbe = errors.New("invalid probe")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Biometric capability errors.
	ErrVerifierTimeout     = errors.New("verifier timeout")
	ErrVerifierUnavailable = errors.New("verifier unavailable")
)
