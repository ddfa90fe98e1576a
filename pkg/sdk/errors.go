package econsult

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from the service's error codes.
// Use errors.Is() to check.
var (
	ErrBadRequest   = errors.New("econsult: bad request")
	ErrUnauthorized = errors.New("econsult: unauthorized")
	ErrTimeout      = errors.New("econsult: request timed out")
	ErrCancelled    = errors.New("econsult: request cancelled")
	ErrUnavailable  = errors.New("econsult: service unavailable")
	ErrInternal     = errors.New("econsult: internal error")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("econsult: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps the error code onto a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "bad_request":
		return ErrBadRequest
	case "unauthorized":
		return ErrUnauthorized
	case "timeout":
		return ErrTimeout
	case "cancelled":
		return ErrCancelled
	case "service_unavailable":
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
