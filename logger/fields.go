package logger

import "time"

// Standard field keys used by the SDK.
const (
	FieldComponent   = "component"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
	FieldRequestID   = "request_id"
	FieldService     = "service"
	FieldModule      = "module"
	FieldFunction    = "function"
	FieldRegion      = "region"
	FieldMethod      = "method"
	FieldDestination = "destination"
	FieldAttempt     = "attempt"
	FieldStatus      = "status"
	FieldKind        = "kind"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Debug("sent", logger.Fields(logger.FieldMethod, "GET", logger.FieldStatus, 200))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
