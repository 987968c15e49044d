package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeRouting            = "ROUTING_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Sentinel errors returned by repositories independent of the backing store.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record modified concurrently")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewForbidden reports an actor lacking scope or role for the requested action.
func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewRoutingError reports a missing escalation target or a broken supervisory reference.
func NewRoutingError(message string, details map[string]any) error {
	return NewDomainError(CodeRouting, message, http.StatusUnprocessableEntity, details)
}

// NewStorageUnavailable wraps a collaborator timeout or failure. The message is
// deliberately generic; the cause is kept for logging.
func NewStorageUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStorageUnavailable,
		Message:    "storage temporarily unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if errors.Is(err, ErrVersionConflict) {
		return NewConflict("ticket was modified concurrently, please retry", nil).(*DomainError)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewStorageUnavailable(err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// StorageError maps a repository failure for resource. Missing rows and
// version conflicts keep their meaning; anything else the store returned is
// reported as unavailable.
func StorageError(resource string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, ErrNotFound):
		return NewNotFound(resource, nil)
	case errors.Is(err, ErrVersionConflict):
		return NewConflict(resource+" was modified concurrently, please retry", nil)
	default:
		return NewStorageUnavailable(err)
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
