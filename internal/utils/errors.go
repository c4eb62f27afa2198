package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Every error returned by a service wraps exactly one of them so
// handlers can map it to a status with errors.Is.
var (
	ErrValidation = errors.New("VALIDATION_ERROR")
	ErrNotFound   = errors.New("NOT_FOUND")
	ErrConflict   = errors.New("CONFLICT")
	ErrForbidden  = errors.New("FORBIDDEN")
	ErrUpstream   = errors.New("UPSTREAM_ERROR")
	ErrAuth       = errors.New("UNAUTHORIZED")
)

// Common application errors used across services.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuth)
	ErrAlreadyConfirmed   = fmt.Errorf("%w: attendance already confirmed", ErrConflict)
	ErrDuplicateUsername  = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrSyncInProgress     = fmt.Errorf("%w: order sync already running", ErrConflict)
	ErrSelfDeactivation   = fmt.Errorf("%w: operators cannot deactivate themselves", ErrValidation)
	ErrOutsideAttraction  = fmt.Errorf("%w: item does not belong to your attraction", ErrForbidden)
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound builds a not-found error for the named entity.
func NotFound(entity string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, entity)
}

// Upstream wraps a collaborator failure.
func Upstream(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, service, err)
}

// HTTPStatus maps an error to its HTTP status and API error code.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, ErrValidation.Error()
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized, ErrAuth.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, ErrConflict.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrForbidden.Error()
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
