package credential

import (
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kbukum/gs2kit/errors"
)

const (
	testClientID = "GKIAexample"
	testSecret   = "c2VjcmV0LWtleQ==" // "secret-key"
)

func mustBasic(t *testing.T) *Basic {
	t.Helper()
	b, err := NewBasic(testClientID, testSecret)
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	return b
}

func TestSign_KnownVector(t *testing.T) {
	got := Sign([]byte("secret-key"), "inventory", "getItem", 1700000000)
	if got != "1fse35SMNe/yFCLL/3lafmiun4xTElcpvI/eXEkQCHo=" {
		t.Errorf("unexpected signature %q", got)
	}
}

func TestSign_Deterministic(t *testing.T) {
	a := Sign([]byte("k"), "account", "login", 42)
	b := Sign([]byte("k"), "account", "login", 42)
	if a != b {
		t.Errorf("expected identical signatures, got %q and %q", a, b)
	}
}

func TestSign_Sensitivity(t *testing.T) {
	base := Sign([]byte("k"), "account", "login", 42)
	variants := map[string]string{
		"secret":    Sign([]byte("k2"), "account", "login", 42),
		"module":    Sign([]byte("k"), "accounts", "login", 42),
		"function":  Sign([]byte("k"), "account", "logout", 42),
		"timestamp": Sign([]byte("k"), "account", "login", 43),
	}
	for name, sig := range variants {
		if sig == base {
			t.Errorf("changing %s did not change the signature", name)
		}
	}
}

func TestSign_NoCollisions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	word := func() string {
		const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
		b := make([]byte, 1+rng.IntN(16))
		for i := range b {
			b[i] = letters[rng.IntN(len(letters))]
		}
		return string(b)
	}

	secret := []byte("secret-key")
	inputs := make(map[string]struct{})
	signatures := make(map[string]string)
	for range 5000 {
		module, function, ts := word(), word(), rng.Int64N(1<<40)
		input := fmt.Sprintf("%s:%s:%d", module, function, ts)
		if _, seen := inputs[input]; seen {
			continue
		}
		inputs[input] = struct{}{}

		sig := Sign(secret, module, function, ts)
		if prev, dup := signatures[sig]; dup {
			t.Fatalf("%q and %q share signature %q", prev, input, sig)
		}
		signatures[sig] = input

		if Sign([]byte("other-key"), module, function, ts) == sig {
			t.Fatalf("changing the secret did not change the signature of %q", input)
		}
	}
	if len(signatures) < 4000 {
		t.Errorf("expected at least 4000 distinct inputs, got %d", len(signatures))
	}
}

func TestBasic_Authorize(t *testing.T) {
	b := mustBasic(t)
	headers := map[string]string{"Existing": "kept"}
	b.Authorize("inventory", "getItem", headers, 1700000000)

	if headers[HeaderClientID] != testClientID {
		t.Errorf("expected client id header, got %q", headers[HeaderClientID])
	}
	if headers[HeaderTimestamp] != "1700000000" {
		t.Errorf("expected decimal timestamp, got %q", headers[HeaderTimestamp])
	}
	if headers[HeaderSign] != "1fse35SMNe/yFCLL/3lafmiun4xTElcpvI/eXEkQCHo=" {
		t.Errorf("unexpected signature %q", headers[HeaderSign])
	}
	if headers["Existing"] != "kept" {
		t.Error("Authorize must not drop unrelated headers")
	}
	if _, ok := headers[HeaderOnetimeToken]; ok {
		t.Error("basic credential must not set the one-time token header")
	}
	if b.Kind() != KindBasic || b.ClientID() != testClientID {
		t.Errorf("unexpected kind/client id: %s %s", b.Kind(), b.ClientID())
	}
}

func TestOnetime_NeverSigns(t *testing.T) {
	o, err := NewOnetime("token-123")
	if err != nil {
		t.Fatalf("NewOnetime failed: %v", err)
	}
	headers := map[string]string{}
	o.Authorize("inventory", "getItem", headers, 1700000000)

	if headers[HeaderOnetimeToken] != "token-123" {
		t.Errorf("expected token header, got %q", headers[HeaderOnetimeToken])
	}
	if headers[HeaderTimestamp] != "1700000000" {
		t.Errorf("expected timestamp header, got %q", headers[HeaderTimestamp])
	}
	if _, ok := headers[HeaderSign]; ok {
		t.Error("one-time credential must not set the sign header")
	}
	if _, ok := headers[HeaderClientID]; ok {
		t.Error("one-time credential must not set the client id header")
	}
	if len(headers) != 2 {
		t.Errorf("expected exactly 2 headers, got %v", headers)
	}
}

func TestNewBasic_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		secret   string
	}{
		{"empty id", "", testSecret},
		{"empty secret", testClientID, ""},
		{"secret not base64", testClientID, "not base64!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBasic(tt.clientID, tt.secret)
			if !errors.HasCode(err, errors.ErrCodeInvalidCredential) {
				t.Errorf("expected INVALID_CREDENTIAL, got %v", err)
			}
		})
	}
}

func TestNewOnetime_Empty(t *testing.T) {
	if _, err := NewOnetime(""); !errors.HasCode(err, errors.ErrCodeInvalidCredential) {
		t.Errorf("expected INVALID_CREDENTIAL, got %v", err)
	}
}

func TestCredentialInterface(t *testing.T) {
	o, _ := NewOnetime("t")
	creds := []Credential{mustBasic(t), o}
	kinds := []Kind{KindBasic, KindOnetime}
	for i, c := range creds {
		if c.Kind() != kinds[i] {
			t.Errorf("credential %d: expected %s, got %s", i, kinds[i], c.Kind())
		}
	}
}

func TestVerify(t *testing.T) {
	secret, _ := base64.StdEncoding.DecodeString(testSecret)
	now := time.Unix(1700000000, 0)

	signed := func() map[string]string {
		h := map[string]string{}
		mustBasic(t).Authorize("inventory", "getItem", h, now.Unix())
		return h
	}

	if err := Verify(signed(), secret, "inventory", "getItem", now, time.Minute); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(map[string]string)
		module string
		now    time.Time
		want   error
	}{
		{"missing sign", func(h map[string]string) { delete(h, HeaderSign) }, "inventory", now, ErrMissingHeader},
		{"missing client id", func(h map[string]string) { delete(h, HeaderClientID) }, "inventory", now, ErrMissingHeader},
		{"bad timestamp", func(h map[string]string) { h[HeaderTimestamp] = "soon" }, "inventory", now, ErrBadTimestamp},
		{"stale", func(map[string]string) {}, "inventory", now.Add(2 * time.Minute), ErrTimestampSkew},
		{"future", func(map[string]string) {}, "inventory", now.Add(-2 * time.Minute), ErrTimestampSkew},
		{"wrong module", func(map[string]string) {}, "account", now, ErrSignatureInvalid},
		{"tampered timestamp", func(h map[string]string) { h[HeaderTimestamp] = "1700000001" }, "inventory", now, ErrSignatureInvalid},
		{"garbage sign", func(h map[string]string) { h[HeaderSign] = "%%%" }, "inventory", now, ErrSignatureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := signed()
			tt.mutate(h)
			err := Verify(h, secret, tt.module, "getItem", tt.now, time.Minute)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerify_ZeroSkewSkipsWindow(t *testing.T) {
	secret, _ := base64.StdEncoding.DecodeString(testSecret)
	h := map[string]string{}
	mustBasic(t).Authorize("inventory", "getItem", h, 1)

	if err := Verify(h, secret, "inventory", "getItem", time.Now(), 0); err != nil {
		t.Errorf("expected no window check with zero skew, got %v", err)
	}
}
