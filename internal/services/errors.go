package services

import (
	"errors"
	"fmt"

	"task-tracker/backend/internal/repositories"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so callers cannot tell which one failed.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrUsernameTaken      = errors.New("username already exists")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInternal           = errors.New("internal error")
	ErrUnavailable        = errors.New("service temporarily unavailable")
	// ErrCanceled means the caller went away before the call finished.
	ErrCanceled = errors.New("request canceled")
)

type Kind string

const (
	KindNone         Kind = ""
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindUnavailable  Kind = "unavailable"
	KindCanceled     Kind = "canceled"
	KindInternal     Kind = "internal"
)

// KindOf classifies err. Errors not produced by this package are Internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrTaskNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	default:
		return KindInternal
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// storeError maps an unexpected repository failure. Timeouts are retryable
// and cancellations belong to the caller. Anything else is opaque.
func storeError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, repositories.ErrCanceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
