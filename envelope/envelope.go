// Package envelope carries pre-signed GS2 request metadata that an
// application forwards on behalf of someone else, for example a game server
// relaying a player's signed request.
//
// Every field is independently optional. Envelopes are built from loosely
// typed parameter maps (decoded JSON, framework contexts) and rendered back
// to header form with Headers.
package envelope

import (
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
)

// Parameter keys read by NewBasicRequest and NewUserRequest.
const (
	KeyClientID    = "X-GS2-CLIENT-ID"
	KeyTimestamp   = "X-GS2-TIMESTAMP"
	KeyRequestSign = "X-GS2-REQUEST-SIGN"
	KeyRequestID   = "X-GS2-REQUEST-ID"
	KeyAccessToken = "X-GS2-ACCESS-TOKEN"
)

// ErrNotString is returned when a recognised key holds a non-string value.
var ErrNotString = stderrors.New("envelope: value is not a string")

// BasicRequest carries client identity and signature metadata.
type BasicRequest struct {
	ClientID    *string `json:"clientId,omitempty"`
	Timestamp   *string `json:"timestamp,omitempty"`
	RequestSign *string `json:"requestSign,omitempty"`
	RequestID   *string `json:"requestId,omitempty"`
}

// NewBasicRequest reads the basic envelope keys from params. Absent keys
// leave the field nil; a nil params map yields an empty envelope.
func NewBasicRequest(params map[string]any) (*BasicRequest, error) {
	r := &BasicRequest{}
	for key, dst := range map[string]**string{
		KeyClientID:    &r.ClientID,
		KeyTimestamp:   &r.Timestamp,
		KeyRequestSign: &r.RequestSign,
		KeyRequestID:   &r.RequestID,
	} {
		v, err := stringParam(params, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return r, nil
}

// WithClientID sets the client id and returns the receiver.
func (r *BasicRequest) WithClientID(v string) *BasicRequest {
	r.ClientID = &v
	return r
}

// WithTimestamp sets the timestamp and returns the receiver.
func (r *BasicRequest) WithTimestamp(v string) *BasicRequest {
	r.Timestamp = &v
	return r
}

// WithRequestSign sets the request signature and returns the receiver.
func (r *BasicRequest) WithRequestSign(v string) *BasicRequest {
	r.RequestSign = &v
	return r
}

// WithRequestID sets the request id and returns the receiver.
func (r *BasicRequest) WithRequestID(v string) *BasicRequest {
	r.RequestID = &v
	return r
}

// WithNewRequestID assigns a random UUID as request id.
func (r *BasicRequest) WithNewRequestID() *BasicRequest {
	return r.WithRequestID(uuid.NewString())
}

// Headers renders the set fields using the envelope keys.
func (r *BasicRequest) Headers() map[string]string {
	h := make(map[string]string, 4)
	putIfSet(h, KeyClientID, r.ClientID)
	putIfSet(h, KeyTimestamp, r.Timestamp)
	putIfSet(h, KeyRequestSign, r.RequestSign)
	putIfSet(h, KeyRequestID, r.RequestID)
	return h
}

// UserRequest adds a player access token to BasicRequest.
type UserRequest struct {
	BasicRequest
	AccessToken *string `json:"accessToken,omitempty"`
}

// NewUserRequest reads the basic envelope keys plus the access token.
func NewUserRequest(params map[string]any) (*UserRequest, error) {
	basic, err := NewBasicRequest(params)
	if err != nil {
		return nil, err
	}
	token, err := stringParam(params, KeyAccessToken)
	if err != nil {
		return nil, err
	}
	return &UserRequest{BasicRequest: *basic, AccessToken: token}, nil
}

// WithAccessToken sets the access token and returns the receiver.
func (r *UserRequest) WithAccessToken(v string) *UserRequest {
	r.AccessToken = &v
	return r
}

// Headers renders the set fields using the envelope keys.
func (r *UserRequest) Headers() map[string]string {
	h := r.BasicRequest.Headers()
	putIfSet(h, KeyAccessToken, r.AccessToken)
	return h
}

func stringParam(params map[string]any, key string) (*string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrNotString, key, raw)
	}
	return &s, nil
}

func putIfSet(h map[string]string, key string, v *string) {
	if v != nil {
		h[key] = *v
	}
}
