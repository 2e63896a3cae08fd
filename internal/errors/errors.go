// Package errors provides typed error definitions for the webhook service.
// This package consolidates error handling and provides structured error types
// that can be used for better error classification and handling.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Container errors
	ErrContainerExecFailed ErrorCode = "CONTAINER_EXEC_FAILED"
	ErrContainerInvalidID  ErrorCode = "CONTAINER_INVALID_ID"
	ErrRuntimeUnavailable  ErrorCode = "RUNTIME_UNAVAILABLE"

	// Webhook errors
	ErrWebhookSignature ErrorCode = "WEBHOOK_SIGNATURE"
	ErrWebhookOrigin    ErrorCode = "WEBHOOK_ORIGIN"
	ErrWebhookPayload   ErrorCode = "WEBHOOK_PAYLOAD"
	ErrQueueFull        ErrorCode = "QUEUE_FULL"

	// Database errors
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrDatabaseQuery      ErrorCode = "DATABASE_QUERY"
	ErrDatabaseMigration  ErrorCode = "DATABASE_MIGRATION"

	// Internal errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// WebhookError represents a structured error with additional context
type WebhookError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Cause      error     `json:"-"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *WebhookError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *WebhookError) Unwrap() error {
	return e.Cause
}

// GetHTTPStatus returns the HTTP status code for the error
func (e *WebhookError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return defaultHTTPStatus(e.Code)
}

func defaultHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrWebhookSignature, ErrWebhookOrigin:
		return http.StatusForbidden
	case ErrWebhookPayload:
		return http.StatusBadRequest
	case ErrQueueFull:
		return http.StatusServiceUnavailable
	case ErrConfigNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new WebhookError with the given code and message
func New(code ErrorCode, message string) *WebhookError {
	return &WebhookError{Code: code, Message: message}
}

// NewWithDetails creates a new WebhookError with details
func NewWithDetails(code ErrorCode, message, details string) *WebhookError {
	return &WebhookError{Code: code, Message: message, Details: details}
}

// Wrap creates a new WebhookError wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *WebhookError {
	return &WebhookError{Code: code, Message: message, Cause: cause}
}

// WrapWithDetails creates a new WebhookError with details wrapping a cause
func WrapWithDetails(code ErrorCode, message, details string, cause error) *WebhookError {
	return &WebhookError{Code: code, Message: message, Details: details, Cause: cause}
}
