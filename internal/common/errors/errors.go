// Package errors provides standardized error handling for backend API
// operations and their user-facing notification form.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetworkFailure      ErrorCode = "NETWORK_FAILURE"
	ErrCodeBackendValidation   ErrorCode = "BACKEND_VALIDATION_FAILED"
	ErrCodePreconditionFailed  ErrorCode = "PRECONDITION_FAILED"
	ErrCodeAuthenticationError ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeSessionStoreFailed  ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeDecodeFailed        ErrorCode = "RESPONSE_DECODE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewNetworkFailureError creates a retryable transport-level error.
func NewNetworkFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkFailure,
		Message:   "Backend request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendValidationError carries the backend's own message for a 4xx
// response. Not retryable: the same request would fail again.
func NewBackendValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendValidation,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreconditionFailedError creates a client-side validation error caught
// before any network call.
func NewPreconditionFailedError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable auth error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationError,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   "Resource not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError creates a retryable local session store error.
func NewSessionStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecodeFailedError creates a non-retryable response decoding error.
func NewDecodeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Failed to decode backend response",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Severity tags a user-visible notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the single user-visible form every outcome collapses to.
// No failure in this layer is fatal: each one degrades to a dismissible
// notification and the user may retry the action.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notify normalizes any error into an error-severity notification. Backend
// validation messages pass through verbatim; everything else shows the
// structured message.
func Notify(err error) Notification {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return Notification{Message: stdErr.Message, Severity: SeverityError}
	}
	return Notification{Message: err.Error(), Severity: SeverityError}
}

// NotifySuccess builds a success notification for a completed action.
func NotifySuccess(message string) Notification {
	return Notification{Message: message, Severity: SeveritySuccess}
}

// IsRetryable reports whether the error is worth retrying manually.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}
