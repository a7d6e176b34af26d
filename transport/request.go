package transport

import (
	"net/http"
	"time"
	"unicode/utf8"
)

// Request describes an outbound exchange.
type Request struct {
	// URL is the absolute http or https URL.
	URL string
	// Query parameters, encoded with EncodeQuery.
	Query map[string]string
	// Headers are sent as given. Host and Connection are always overwritten.
	Headers map[string]string
	// Body is sent by POST and PUT when JSON is nil.
	Body []byte
	// JSON is marshalled and sent by POST and PUT. It takes precedence over Body.
	JSON any
	// Timeout bounds each attempt. Zero uses the transport default.
	Timeout time.Duration
}

// Response is the raw result of an exchange.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers, one value per canonical key.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// Text returns the body as a string. Invalid UTF-8 is preserved as is.
func (r *Response) Text() string {
	return string(r.Body)
}

// IsUTF8 reports whether the body is valid UTF-8.
func (r *Response) IsUTF8() bool {
	return utf8.Valid(r.Body)
}

// Header returns a response header by case-insensitive name.
func (r *Response) Header(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
