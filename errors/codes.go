package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable)
const (
	// ErrCodeConnectionFailed indicates the remote endpoint could not be reached
	// or the exchange broke at the network/protocol level.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the exchange did not finish within the call timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Construction errors
const (
	// ErrCodeInvalidConfig indicates the client configuration is unusable.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidCredential indicates a credential was built from unusable values.
	ErrCodeInvalidCredential ErrorCode = "INVALID_CREDENTIAL"
	// ErrCodeInvalidInput indicates a call was made with unusable arguments.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Service errors, one per status the platform documents.
const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadGateway         ErrorCode = "BAD_GATEWAY"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRequestTimeout     ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeUnknown            ErrorCode = "UNKNOWN"
)

// Only transport-level failures are retried. A status code from the service
// is a definitive answer.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
