package chat_errors

import (
	"errors"
	"net/http"
	"time"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPersistence        = errors.New("persistence failure")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// HTTPStatus maps an error to the status code used by the handshake and health routes.
// Unknown logins are reported as 401 so the handshake never leaks which logins exist.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine readable code placed in error envelopes.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotFound):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrAlreadyExists):
		return "CONFLICT"
	case errors.Is(err, ErrServiceUnavailable):
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// UTCNow returns the current time truncated to microseconds, the precision postgres keeps.
func UTCNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
