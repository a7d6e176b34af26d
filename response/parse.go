package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/kbukum/gs2kit/transport"
)

// Payload is the decoded body of a successful call.
type Payload map[string]any

// Parse returns the decoded JSON object of a 200 response, or a *Error for
// every other outcome.
func Parse(resp *transport.Response) (Payload, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, NewError(resp.StatusCode, resp.Body)
	}
	value, ok := decodeJSON(resp.Body)
	if !ok {
		return nil, unknown(resp)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, unknown(resp)
	}
	return Payload(obj), nil
}

// ParseInto decodes a 200 response body into v. Non-200 statuses and bodies
// that do not decode into v produce a *Error.
func ParseInto(resp *transport.Response, v any) error {
	if resp.StatusCode != http.StatusOK {
		return NewError(resp.StatusCode, resp.Body)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return unknown(resp)
	}
	return nil
}

// NewError builds the service error for a non-200 status and its raw body.
func NewError(status int, body []byte) *Error {
	e := &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Body:       body,
	}
	if e.Kind == KindServiceUnavailable {
		return e
	}

	msg, ok := envelopeMessage(body)
	if !ok {
		e.Message = string(body)
		return e
	}
	e.Message = msg
	e.Errors = requestErrors(msg)
	return e
}

func unknown(resp *transport.Response) *Error {
	return &Error{
		Kind:       KindUnknown,
		StatusCode: resp.StatusCode,
		Message:    string(resp.Body),
		Body:       resp.Body,
	}
}

// envelopeMessage returns the string "message" field of a JSON object body.
func envelopeMessage(body []byte) (string, bool) {
	value, ok := decodeJSON(body)
	if !ok {
		return "", false
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["message"].(string)
	return msg, ok
}

// requestErrors decodes a message holding a JSON array of
// {component, message} records. Records missing either string field are
// skipped.
func requestErrors(msg string) []RequestError {
	value, ok := decodeJSON([]byte(msg))
	if !ok {
		return nil
	}
	records, ok := value.([]any)
	if !ok {
		return nil
	}

	var out []RequestError
	for _, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		component, ok := rec["component"].(string)
		if !ok {
			continue
		}
		message, ok := rec["message"].(string)
		if !ok {
			continue
		}
		out = append(out, RequestError{Component: component, Message: message})
	}
	return out
}

// decodeJSON reports whether body holds exactly one JSON value and returns it.
func decodeJSON(body []byte) (any, bool) {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false
	}
	return v, true
}
