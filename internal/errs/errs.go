package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
// ErrNotFound covers both "does not exist" and "caller has no visibility"
// so responses never reveal whether a session exists.
var (
	ErrNotFound  = errors.New("session or participant not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("invalid state")
	ErrCapacity  = errors.New("session is full")
)
