// Package apperror defines the error taxonomy surfaced by the API.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API-facing error with a stable machine readable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies created by WithMessage or
// WithDetails still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithMessage(message string) *Error {
	return &Error{Code: e.Code, Message: message, Status: e.Status, Details: e.Details}
}

func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, Details: details}
}

var (
	ErrValidation = &Error{
		Code:    "validation_error",
		Message: "Validation failed",
		Status:  http.StatusBadRequest,
	}
	ErrUnauthorized = &Error{
		Code:    "unauthorized",
		Message: "Authentication required",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidCredentials = &Error{
		Code:    "invalid_credentials",
		Message: "Invalid email or password",
		Status:  http.StatusBadRequest,
	}
	ErrNotFound = &Error{
		Code:    "not_found",
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}
	ErrConflict = &Error{
		Code:    "conflict",
		Message: "Resource already exists",
		Status:  http.StatusConflict,
	}
	ErrUnsupportedMediaType = &Error{
		Code:    "unsupported_media_type",
		Message: "Unsupported file type",
		Status:  http.StatusUnsupportedMediaType,
	}
	ErrPayloadTooLarge = &Error{
		Code:    "payload_too_large",
		Message: "File exceeds the size limit",
		Status:  http.StatusRequestEntityTooLarge,
	}
	ErrTooManyFiles = &Error{
		Code:    "too_many_files",
		Message: "Maximum 10 files allowed per upload",
		Status:  http.StatusBadRequest,
	}
	ErrNoFiles = &Error{
		Code:    "no_files",
		Message: "No files provided",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidContent = &Error{
		Code:    "invalid_content",
		Message: "Post content cannot be empty",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidMediaReference = &Error{
		Code:    "invalid_media_reference",
		Message: "One or more media assets not found or not owned by user",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidSchedule = &Error{
		Code:    "invalid_schedule",
		Message: "Scheduled date must be a valid date in the future",
		Status:  http.StatusBadRequest,
	}
	ErrNotConnected = &Error{
		Code:    "not_connected",
		Message: "LinkedIn not connected",
		Status:  http.StatusBadRequest,
	}
	ErrTokenExpired = &Error{
		Code:    "token_expired",
		Message: "LinkedIn token expired, reconnect required",
		Status:  http.StatusBadRequest,
	}
	ErrRateLimited = &Error{
		Code:    "rate_limited",
		Message: "Too many requests. Please try again later.",
		Status:  http.StatusTooManyRequests,
	}
	ErrUpstream = &Error{
		Code:    "upstream_error",
		Message: "External service call failed",
		Status:  http.StatusBadGateway,
	}
	ErrInternal = &Error{
		Code:    "internal_error",
		Message: "An internal error occurred",
		Status:  http.StatusInternalServerError,
	}
)

// NewValidation builds a validation error carrying per-field messages.
func NewValidation(fields map[string]string) *Error {
	return ErrValidation.WithMessage("One or more fields failed validation").WithDetails(fields)
}

func NewValidationField(field, message string) *Error {
	return ErrValidation.
		WithMessage(fmt.Sprintf("Validation failed: %s", message)).
		WithDetails(map[string]string{field: message})
}

// As extracts the API error from err's chain. Anything unknown is internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal
}
