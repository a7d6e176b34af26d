package response

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/kbukum/gs2kit/errors"
)

// Kind classifies a service error.
type Kind int

const (
	// KindUnknown covers every status without a dedicated kind, and a 200
	// whose body is not a JSON object.
	KindUnknown Kind = iota
	// KindBadRequest is status 400.
	KindBadRequest
	// KindUnauthorized is status 401.
	KindUnauthorized
	// KindQuotaExceeded is status 402.
	KindQuotaExceeded
	// KindNotFound is status 404.
	KindNotFound
	// KindConflict is status 409.
	KindConflict
	// KindInternalServerError is status 500.
	KindInternalServerError
	// KindBadGateway is status 502.
	KindBadGateway
	// KindServiceUnavailable is status 503.
	KindServiceUnavailable
	// KindRequestTimeout is status 504.
	KindRequestTimeout
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternalServerError:
		return "internal_server_error"
	case KindBadGateway:
		return "bad_gateway"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindRequestTimeout:
		return "request_timeout"
	default:
		return "unknown"
	}
}

var kindByStatus = map[int]Kind{
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusPaymentRequired:     KindQuotaExceeded,
	http.StatusNotFound:            KindNotFound,
	http.StatusConflict:            KindConflict,
	http.StatusInternalServerError: KindInternalServerError,
	http.StatusBadGateway:          KindBadGateway,
	http.StatusServiceUnavailable:  KindServiceUnavailable,
	http.StatusGatewayTimeout:      KindRequestTimeout,
}

var codeByKind = map[Kind]errors.ErrorCode{
	KindUnknown:             errors.ErrCodeUnknown,
	KindBadRequest:          errors.ErrCodeBadRequest,
	KindUnauthorized:        errors.ErrCodeUnauthorized,
	KindQuotaExceeded:       errors.ErrCodeQuotaExceeded,
	KindNotFound:            errors.ErrCodeNotFound,
	KindConflict:            errors.ErrCodeConflict,
	KindInternalServerError: errors.ErrCodeInternal,
	KindBadGateway:          errors.ErrCodeBadGateway,
	KindServiceUnavailable:  errors.ErrCodeServiceUnavailable,
	KindRequestTimeout:      errors.ErrCodeRequestTimeout,
}

// KindForStatus returns the kind a non-200 status maps to.
func KindForStatus(status int) Kind {
	return kindByStatus[status]
}

// RequestError is one failure reported by the service inside a multi-error
// envelope.
type RequestError struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Error is a categorized service error. Service errors are final and are
// never retried.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// StatusCode is the HTTP status code.
	StatusCode int
	// Message is the envelope message, or the raw body when the body is not
	// a JSON error envelope. Always empty for KindServiceUnavailable.
	Message string
	// Body is the raw response body.
	Body []byte
	// Errors are the records of a multi-error envelope, if any.
	Errors []RequestError
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gs2: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("gs2: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
}

// AppError converts the error to the shared error taxonomy. The request
// errors are attached as the "errors" detail.
func (e *Error) AppError() *errors.AppError {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	appErr := errors.New(codeByKind[e.Kind], msg, e.StatusCode).WithCause(e)
	if len(e.Errors) > 0 {
		appErr = appErr.WithDetail("errors", e.Errors)
	}
	return appErr
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of a service error. ok is false when err is not a
// service error.
func KindOf(err error) (kind Kind, ok bool) {
	e, ok := AsError(err)
	if !ok {
		return KindUnknown, false
	}
	return e.Kind, true
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsBadRequest reports whether err is a 400 service error.
func IsBadRequest(err error) bool { return isKind(err, KindBadRequest) }

// IsUnauthorized reports whether err is a 401 service error.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsQuotaExceeded reports whether err is a 402 service error.
func IsQuotaExceeded(err error) bool { return isKind(err, KindQuotaExceeded) }

// IsNotFound reports whether err is a 404 service error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConflict reports whether err is a 409 service error.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsInternalServerError reports whether err is a 500 service error.
func IsInternalServerError(err error) bool { return isKind(err, KindInternalServerError) }

// IsBadGateway reports whether err is a 502 service error.
func IsBadGateway(err error) bool { return isKind(err, KindBadGateway) }

// IsServiceUnavailable reports whether err is a 503 service error.
func IsServiceUnavailable(err error) bool { return isKind(err, KindServiceUnavailable) }

// IsRequestTimeout reports whether err is a 504 service error.
func IsRequestTimeout(err error) bool { return isKind(err, KindRequestTimeout) }

// IsUnknown reports whether err is a service error without a dedicated kind.
func IsUnknown(err error) bool { return isKind(err, KindUnknown) }
