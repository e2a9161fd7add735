// Package common defines shared constants and sentinel errors used across
// client and server layers of DMO Clinic. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Malformed numeric or form input, rejected before any store interaction.
	ErrInvalidInput = errors.New("invalid input")

	// The remote document store failed or timed out. Not retried.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// A locally cached blob could not be decoded. Treated as a cache miss.
	ErrLocalStorageCorrupt = errors.New("local storage corrupt")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
