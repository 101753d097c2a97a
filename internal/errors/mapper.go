// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrSelfAction       = errors.New("self action")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrUnavailable      = errors.New("unavailable")
)

// Error carries a kind plus a client facing detail.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) error {
	return &Error{Kind: ErrAlreadyExists, Detail: fmt.Sprintf(format, args...)}
}

func SelfAction(format string, args ...any) error {
	return &Error{Kind: ErrSelfAction, Detail: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) error {
	return &Error{Kind: ErrPermissionDenied, Detail: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports bad client input.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Detail: fmt.Sprintf(format, args...)}
}

// Unavailable reports a feature whose backing service is not configured.
func Unavailable(format string, args ...any) error {
	return &Error{Kind: ErrUnavailable, Detail: fmt.Sprintf(format, args...)}
}

// NoMatchError is returned when two users try to talk without a match.
type NoMatchError struct {
	UserA string
	UserB string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("No match for users %s and %s", e.UserA, e.UserB)
}

// IsNotFound reports domain and gorm not-found errors alike.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// Map converts domain/repo/infra errors into an HTTP status and a detail
// message safe to hand back to clients.
func Map(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var noMatch *NoMatchError
	switch {
	case errors.As(err, &noMatch):
		return http.StatusForbidden, noMatch.Error()

	case IsNotFound(err):
		return http.StatusNotFound, detail(err, "record not found")

	case errors.Is(err, ErrSelfAction),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyExists):
		return http.StatusBadRequest, detail(err, err.Error())

	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, detail(err, "permission denied")

	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, detail(err, "service unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request was canceled"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}
