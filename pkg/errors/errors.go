package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the category of an application error, per the daemon's
// error taxonomy (InvalidInput, NotFound, Unauthorized, StoreUnavailable,
// EmbedderFailed, LLMFailed, Timeout, Shutdown, plus ambient Internal/Conflict).
type ErrorType string

const (
	ErrorTypeInvalidInput     ErrorType = "INVALID_INPUT"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized     ErrorType = "UNAUTHORIZED"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"
	ErrorTypeEmbedderFailed   ErrorType = "EMBEDDER_FAILED"
	ErrorTypeLLMFailed        ErrorType = "LLM_FAILED"
	ErrorTypeTimeout          ErrorType = "TIMEOUT"
	ErrorTypeShutdown         ErrorType = "SHUTDOWN"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// AppError represents an application-specific error carrying an HTTP status
// and optional structured details, the way handlers are expected to report
// validation failures (`details` field in the documented 400 envelope).
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// NewInvalidInput creates a 400 validation/shape error.
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFound creates a 404 error for an unknown id/slug.
func NewNotFound(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewUnauthorized creates a 401 error for a missing/bad API key.
func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		StackTrace: captureStackTrace(),
	}
}

// NewConflict creates a 409 error.
func NewConflict(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewStoreUnavailable creates a 500 error for document-store failures.
func NewStoreUnavailable(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeStoreUnavailable,
		Message:    fmt.Sprintf("store operation %q failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewEmbedderFailed creates a 503 error for the embedding provider.
func NewEmbedderFailed(err error) *AppError {
	return &AppError{
		Type:       ErrorTypeEmbedderFailed,
		Message:    "embedding provider failed",
		Cause:      err,
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// NewLLMFailed creates a 503 error for the LLM provider.
func NewLLMFailed(err error) *AppError {
	return &AppError{
		Type:       ErrorTypeLLMFailed,
		Message:    "LLM provider failed",
		Cause:      err,
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// NewTimeout creates a 504 error for a deadline exceeded.
func NewTimeout(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation %q timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout,
		StackTrace: captureStackTrace(),
	}
}

// NewShutdown creates an error for work cancelled by graceful shutdown.
func NewShutdown(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeShutdown,
		Message:    fmt.Sprintf("%q cancelled by shutdown", operation),
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// NewInternal creates a generic 500 error.
func NewInternal(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// IsAppError reports whether err carries an AppError in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts an *AppError from err's chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsInvalidInput(err error) bool { return IsType(err, ErrorTypeInvalidInput) }
func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }
func IsTimeout(err error) bool      { return IsType(err, ErrorTypeTimeout) }
func IsShutdown(err error) bool     { return IsType(err, ErrorTypeShutdown) }

// Wrap adds context to err, preserving AppError typing when present.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return NewInternal(message).WithCause(err)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
