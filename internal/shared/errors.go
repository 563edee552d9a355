package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates a missing, malformed or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an authenticated actor lacking a capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRange indicates an identifier range misconfiguration.
	ErrInvalidRange = errors.New("invalid range")
	// ErrRangeExhausted indicates an identifier range has no capacity left.
	ErrRangeExhausted = errors.New("range exhausted")
	// ErrStorageUnavailable indicates the persistence collaborator failed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
