package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified SDK error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code the error originated from, 0 when the
	// error was raised locally.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Constructors for locally raised errors ---

// ConnectionFailed creates an AppError for a destination that could not be reached.
func ConnectionFailed(destination string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to reach %s", destination),
		Retryable: true, Cause: cause,
		Details: map[string]any{"destination": destination},
	}
}

// Timeout creates an AppError for an exchange that ran past its deadline.
func Timeout(destination string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("request to %s timed out", destination),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true, Cause: cause,
		Details: map[string]any{"destination": destination},
	}
}

// InvalidConfig creates an AppError for an unusable configuration value.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid config: %s", reason),
		Details: details,
	}
}

// InvalidCredential creates an AppError for a credential that cannot sign requests.
func InvalidCredential(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidCredential, Message: fmt.Sprintf("invalid credential: %s", reason),
	}
}

// InvalidInput creates an AppError for invalid call arguments.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
