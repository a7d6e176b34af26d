package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/resilience"
)

// Error is a transport-level failure: the exchange produced no HTTP response.
type Error struct {
	// Method is the HTTP method.
	Method string
	// URL is the request URL including the encoded query.
	URL string
	// Destination is the pool key the request was sent to.
	Destination Destination
	// Attempts is the number of attempts made.
	Attempts int
	// Err is the failure of the last attempt.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the last attempt ran out of time.
func (e *Error) Timeout() bool {
	if stderrors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(e.Err, &netErr) && netErr.Timeout()
}

// AppError converts the failure to the shared error taxonomy.
func (e *Error) AppError() *errors.AppError {
	if e.Timeout() {
		return errors.Timeout(e.Destination.String(), e).WithDetail("attempts", e.Attempts)
	}
	return errors.ConnectionFailed(e.Destination.String(), e).WithDetail("attempts", e.Attempts)
}

// IsTransportError reports whether err is a transport-level failure.
func IsTransportError(err error) bool {
	var e *Error
	return stderrors.As(err, &e)
}

// IsTimeout reports whether err is a transport failure caused by a timeout.
func IsTimeout(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Timeout()
}

// IsCircuitOpen reports whether err was caused by an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return stderrors.Is(err, resilience.ErrCircuitOpen)
}
