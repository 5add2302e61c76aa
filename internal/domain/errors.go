package domain

import "errors"

// Sentinel errors returned by the domain services. Handlers map these to
// HTTP status codes and bot replies at the boundary.
var (
	ErrUnregistered      = errors.New("user is not registered")
	ErrAlreadyRegistered = errors.New("user is already registered")
	ErrBanned            = errors.New("user is banned")
	ErrRateLimited       = errors.New("daily post limit reached")
	ErrTextTooLong       = errors.New("text exceeds maximum length")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
)
