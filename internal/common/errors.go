// Package common defines shared constants and sentinel errors used across
// the client data layer and the reference backend. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors. Callers treat ErrStorageUnavailable as "the cache
	// is empty", never as a fatal condition.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnknownIndex       = errors.New("unknown index")
	ErrorNotFound         = errors.New("not found")
	ErrDuplicateID        = errors.New("duplicate id")

	// Network-level errors. ErrNetworkFailure triggers the cache fallback.
	ErrNetworkFailure = errors.New("network failure")
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")

	// Payload errors. A parse failure skips a single element of a batch.
	ErrParseFailure = errors.New("parse failure")

	// Configuration and misuse errors. These are the only kinds allowed to
	// fail a call.
	ErrMissingCollaborator = errors.New("missing collaborator")
	ErrUnsupportedBulkRead = errors.New("bulk read is not supported")

	// Validation errors.
	ErrInvalidQuery  = errors.New("invalid query")
	ErrInvalidRecord = errors.New("invalid record")

	// Connectivity probe could not observe the platform signal.
	ErrSignalUnavailable = errors.New("connectivity signal unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
