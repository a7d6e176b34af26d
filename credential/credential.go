package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"

	"github.com/kbukum/gs2kit/errors"
	"github.com/kbukum/gs2kit/validation"
)

// Header names written by Authorize.
const (
	HeaderClientID     = "X-CLIENT-ID"
	HeaderTimestamp    = "X-REQUEST-TIMESTAMP"
	HeaderSign         = "X-REQUEST-SIGN"
	HeaderOnetimeToken = "X-ONETIME-TOKEN"
)

// Kind names a credential variant.
type Kind string

const (
	KindBasic   Kind = "basic"
	KindOnetime Kind = "onetime"
)

// Credential stamps authentication headers onto an outgoing request.
// The set of implementations is closed: Basic and Onetime.
type Credential interface {
	// Authorize writes the authentication headers for a call to
	// module/function made at timestamp (unix seconds).
	Authorize(module, function string, headers map[string]string, timestamp int64)
	// Kind reports which variant this is.
	Kind() Kind

	credential()
}

// Basic is a shared-secret credential.
type Basic struct {
	clientID string
	key      []byte
}

type basicFields struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required,base64"`
}

// NewBasic creates a shared-secret credential. clientSecret must be standard
// base64; the decoded bytes are the HMAC key.
func NewBasic(clientID, clientSecret string) (*Basic, error) {
	fields := basicFields{ClientID: clientID, ClientSecret: clientSecret}
	if err := validation.ValidateAs(errors.ErrCodeInvalidCredential, fields); err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(clientSecret)
	if err != nil {
		return nil, errors.InvalidCredential("client_secret is not valid base64").WithCause(err)
	}
	return &Basic{clientID: clientID, key: key}, nil
}

// ClientID returns the client id.
func (b *Basic) ClientID() string { return b.clientID }

// Kind returns KindBasic.
func (b *Basic) Kind() Kind { return KindBasic }

// Authorize sets the client id, timestamp and signature headers.
func (b *Basic) Authorize(module, function string, headers map[string]string, timestamp int64) {
	headers[HeaderClientID] = b.clientID
	headers[HeaderTimestamp] = strconv.FormatInt(timestamp, 10)
	headers[HeaderSign] = Sign(b.key, module, function, timestamp)
}

func (b *Basic) credential() {}

// Onetime is a one-time token credential.
type Onetime struct {
	token string
}

type onetimeFields struct {
	Token string `json:"onetime_token" validate:"required"`
}

// NewOnetime creates a one-time token credential.
func NewOnetime(token string) (*Onetime, error) {
	if err := validation.ValidateAs(errors.ErrCodeInvalidCredential, onetimeFields{Token: token}); err != nil {
		return nil, err
	}
	return &Onetime{token: token}, nil
}

// Token returns the token.
func (o *Onetime) Token() string { return o.token }

// Kind returns KindOnetime.
func (o *Onetime) Kind() Kind { return KindOnetime }

// Authorize sets the token and timestamp headers. It never sets the client
// id or signature headers.
func (o *Onetime) Authorize(_, _ string, headers map[string]string, timestamp int64) {
	headers[HeaderOnetimeToken] = o.token
	headers[HeaderTimestamp] = strconv.FormatInt(timestamp, 10)
}

func (o *Onetime) credential() {}

// Sign returns base64(HMAC-SHA256(secret, "module:function:timestamp")).
func Sign(secret []byte, module, function string, timestamp int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(module + ":" + function + ":" + strconv.FormatInt(timestamp, 10)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
