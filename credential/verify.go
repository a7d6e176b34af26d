package credential

import (
	"crypto/hmac"
	"encoding/base64"
	stderrors "errors"
	"strconv"
	"time"
)

// Verification failures returned by Verify.
var (
	ErrMissingHeader    = stderrors.New("credential: missing authentication header")
	ErrBadTimestamp     = stderrors.New("credential: malformed request timestamp")
	ErrTimestampSkew    = stderrors.New("credential: request timestamp outside allowed window")
	ErrSignatureInvalid = stderrors.New("credential: signature mismatch")
)

// Verify checks the signature headers of a shared-secret request against
// secret. The timestamp must lie within skew of now; a zero skew disables
// the window check. Comparison is constant time.
func Verify(headers map[string]string, secret []byte, module, function string, now time.Time, skew time.Duration) error {
	ts, sign := headers[HeaderTimestamp], headers[HeaderSign]
	if ts == "" || sign == "" || headers[HeaderClientID] == "" {
		return ErrMissingHeader
	}
	timestamp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}
	if skew > 0 {
		delta := now.Sub(time.Unix(timestamp, 0))
		if delta < -skew || delta > skew {
			return ErrTimestampSkew
		}
	}

	got, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return ErrSignatureInvalid
	}
	want, _ := base64.StdEncoding.DecodeString(Sign(secret, module, function, timestamp))
	if !hmac.Equal(got, want) {
		return ErrSignatureInvalid
	}
	return nil
}
