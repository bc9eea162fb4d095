// Package apperr defines the sentinel errors matched at the API boundary.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing document, comment, or page.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing, invalid, or expired token, or a
	// wrong draft password.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a document that is not in draft status.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks rejected input (missing or malformed fields).
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a document source or store failure.
	ErrUpstream = errors.New("upstream failure")
)
