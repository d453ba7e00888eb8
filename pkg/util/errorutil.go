package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes exposed to API clients.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeAuthorizationDenied    = "AUTHORIZATION_DENIED"
	CodeNotFound               = "NOT_FOUND"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeConflict               = "CONFLICT"
	CodeTransientStore         = "TRANSIENT_STORE_ERROR"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternal               = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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
	return NewDomainError(CodeAuthenticationRequired, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeAuthorizationDenied, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

func NewTransientStoreError(err error) error {
	return &DomainError{
		Code:       CodeTransientStore,
		Message:    "store temporarily unavailable",
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
	if errors.As(FromStore(err, "resource"), &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// FromStore classifies an error returned by a repository. Missing rows become
// NotFound for the named resource, constraint violations and malformed values
// (SQLSTATE class 22) become validation or conflict errors and connectivity
// failures become TransientStoreError.
func FromStore(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(resource, nil)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return NewConflict(fmt.Sprintf("%s already exists", resource), map[string]any{"constraint": pgErr.ConstraintName})
		case pgErr.Code == "23503":
			return NewValidationError("referenced record does not exist", map[string]any{"constraint": pgErr.ConstraintName})
		case strings.HasPrefix(pgErr.Code, "23"):
			return NewValidationError("constraint violation", map[string]any{"constraint": pgErr.ConstraintName})
		case strings.HasPrefix(pgErr.Code, "22"):
			return NewValidationError("invalid input value", map[string]any{"sqlstate": pgErr.Code})
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "57P01", pgErr.Code == "40001", pgErr.Code == "40P01":
			return NewTransientStoreError(err)
		}
		return NewInternalError(err)
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return NewTransientStoreError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewTransientStoreError(err)
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
