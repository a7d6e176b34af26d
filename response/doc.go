// Package response turns raw transport responses into payloads or
// categorized service errors.
//
// Only status 200 is a success. Every other status maps to exactly one Kind:
//
//	payload, err := response.Parse(resp)
//	switch {
//	case response.IsNotFound(err):
//	case response.IsQuotaExceeded(err):
//	}
//
// Service errors carry the message the platform put in the "message" field of
// the error envelope. When that message is itself a JSON array of
// {component, message} records, each record is exposed in Error.Errors.
package response
