package errorutil

import (
	"errors"
	"fmt"
	"net/http"
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

// Is matches another DomainError by code, so the sentinels below work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeForbiddenChange   = "FORBIDDEN_CHANGE"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &DomainError{Code: CodeValidation}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrUnauthorized      = &DomainError{Code: CodeUnauthorized}
	ErrForbidden         = &DomainError{Code: CodeForbidden}
	ErrForbiddenChange   = &DomainError{Code: CodeForbiddenChange}
	ErrConflict          = &DomainError{Code: CodeConflict}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrInternal          = &DomainError{Code: CodeInternal}
)

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

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewForbiddenChange reports a role policy violation on a field change set.
func NewForbiddenChange(message string, fields []string) error {
	var details map[string]any
	if len(fields) > 0 {
		details = map[string]any{"fields": fields}
	}
	return NewDomainError(CodeForbiddenChange, message, http.StatusForbidden, details)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("status cannot move from %s to %s", from, to),
		http.StatusUnprocessableEntity,
		map[string]any{"from": from, "to": to})
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
		if domainErr.HTTPStatus == 0 {
			domainErr.HTTPStatus = http.StatusInternalServerError
		}
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

// FromHTTPStatus wraps a transport-level status error (e.g. *fiber.Error).
func FromHTTPStatus(status int, message string) *DomainError {
	return &DomainError{Code: codeForStatus(status), Message: message, HTTPStatus: status}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		if status >= 500 {
			return CodeInternal
		}
		return http.StatusText(status)
	}
}
