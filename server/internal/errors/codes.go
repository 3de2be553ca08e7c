package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type returned by the HTTP API.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested date or event does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeMissingColumns indicates the spreadsheet lacks required columns.
	ErrCodeMissingColumns ErrorCode = "MISSING_COLUMNS"
	// ErrCodeRoundTripMismatch indicates the saved file differs from memory.
	ErrCodeRoundTripMismatch ErrorCode = "ROUND_TRIP_MISMATCH"
	// ErrCodeNothingToOptimize indicates the requested range holds no events.
	ErrCodeNothingToOptimize ErrorCode = "NOTHING_TO_OPTIMIZE"
	// ErrCodeOptimizeRejected indicates the model answer failed extraction or validation.
	ErrCodeOptimizeRejected ErrorCode = "OPTIMIZE_REJECTED"
	// ErrCodeLLMUnavailable indicates the LLM service is not configured or failed.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeUnsavedChanges indicates optimize was asked for while edits are unsaved.
	ErrCodeUnsavedChanges ErrorCode = "UNSAVED_CHANGES"
	// ErrCodeFileBusy indicates the schedule file lock could not be taken.
	ErrCodeFileBusy ErrorCode = "FILE_BUSY"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeInvalidArgument:   http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeMissingColumns:    http.StatusUnprocessableEntity,
	ErrCodeRoundTripMismatch: http.StatusConflict,
	ErrCodeNothingToOptimize: http.StatusUnprocessableEntity,
	ErrCodeOptimizeRejected:  http.StatusBadGateway,
	ErrCodeLLMUnavailable:    http.StatusServiceUnavailable,
	ErrCodeUnsavedChanges:    http.StatusConflict,
	ErrCodeFileBusy:          http.StatusServiceUnavailable,
	ErrCodeContextCanceled:   499,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// HTTPStatus returns the response status for the code.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := httpStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// APIError represents a structured error for API operations.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Convenience constructors for common error types.

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}
