// Package common defines shared constants and sentinel errors used across
// the DayHub persistence layer. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound = errors.New("not found")

	// Authorization errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotSignedIn  = errors.New("not signed in")

	// Auth token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
