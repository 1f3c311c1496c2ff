// Package errors provides the application error taxonomy used across the
// optimizer: input validation, not found, conflict, resource exhaustion,
// cancellation, and internal invariant violations, each mapped to an HTTP
// status when it surfaces through the API layer. Route infeasibility is not
// an error here: it is reported per route as a domain.Outcome.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents a standardized application error with an HTTP status
// code and a machine-readable error code.
type AppError struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Status      int                    `json:"-"`
	InternalErr error                  `json:"-"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.InternalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.InternalErr)
	}
	return e.Message
}

// Unwrap returns the internal error for error wrapping.
func (e *AppError) Unwrap() error {
	return e.InternalErr
}

// WithDetails adds additional details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithInternal sets the internal error.
func (e *AppError) WithInternal(err error) *AppError {
	e.InternalErr = err
	return e
}

// NewInputValidationError creates an error for malformed input: a route
// with a negative distance, a dangling foreign key, a missing CSV column.
// The run aborts before any state mutation.
func NewInputValidationError(message string) *AppError {
	if message == "" {
		message = "input validation failed"
	}
	return &AppError{Code: "INPUT_VALIDATION", Message: message, Status: http.StatusBadRequest}
}

// NewResourceExhaustionError creates an error for when a data source
// connection cannot be obtained. The run aborts and any partial writes are
// rolled back.
func NewResourceExhaustionError(message string) *AppError {
	if message == "" {
		message = "required resource unavailable"
	}
	return &AppError{Code: "RESOURCE_EXHAUSTION", Message: message, Status: http.StatusServiceUnavailable}
}

// NewCancellationError creates an error for a cooperatively cancelled run.
// 499 is nonstandard, so this reports 408 instead.
func NewCancellationError(message string) *AppError {
	if message == "" {
		message = "run cancelled"
	}
	return &AppError{Code: "CANCELLED", Message: message, Status: http.StatusRequestTimeout}
}

// NewInternalError creates an error for a violated internal invariant —
// odometer regression, available_from moving backwards — which is always
// fatal to the run in progress.
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "internal invariant violated"
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError}
}

// NewNotFoundError creates a not-found error, used for lookups by id (run,
// vehicle, route) that don't exist.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", resource), Status: http.StatusNotFound}
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *AppError {
	if message == "" {
		message = "resource conflict"
	}
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict}
}

// Predefined common errors.
var (
	ErrNotFound = &AppError{Code: "NOT_FOUND", Message: "resource not found", Status: http.StatusNotFound}

	ErrInputValidation = &AppError{Code: "INPUT_VALIDATION", Message: "input validation failed", Status: http.StatusBadRequest}

	ErrResourceExhaustion = &AppError{Code: "RESOURCE_EXHAUSTION", Message: "required resource unavailable", Status: http.StatusServiceUnavailable}

	ErrCancelled = &AppError{Code: "CANCELLED", Message: "run cancelled", Status: http.StatusRequestTimeout}

	ErrInternal = &AppError{Code: "INTERNAL_ERROR", Message: "internal invariant violated", Status: http.StatusInternalServerError}
)

// IsAppError reports whether err is an *AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts an *AppError from err, wrapping unknown errors as
// internal errors.
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: "internal error", Status: http.StatusInternalServerError, InternalErr: err}
}

// Wrap wraps err with a message, converting it to an *AppError if it isn't
// one already.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		appErr.Message = message
		return appErr
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError, InternalErr: err}
}

// WrapWithCode wraps err with a custom code, message, and HTTP status.
func WrapWithCode(err error, code string, message string, status int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Status: status, InternalErr: err}
}
