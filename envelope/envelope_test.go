package envelope

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewBasicRequest(t *testing.T) {
	r, err := NewBasicRequest(map[string]any{
		KeyClientID:    "client",
		KeyTimestamp:   "1700000000",
		KeyRequestSign: "sig",
		"unrelated":    42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ClientID == nil || *r.ClientID != "client" {
		t.Errorf("unexpected client id: %v", r.ClientID)
	}
	if r.Timestamp == nil || *r.Timestamp != "1700000000" {
		t.Errorf("unexpected timestamp: %v", r.Timestamp)
	}
	if r.RequestSign == nil || *r.RequestSign != "sig" {
		t.Errorf("unexpected sign: %v", r.RequestSign)
	}
	if r.RequestID != nil {
		t.Errorf("expected absent request id, got %q", *r.RequestID)
	}
}

func TestNewBasicRequest_NilParams(t *testing.T) {
	r, err := NewBasicRequest(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Headers()) != 0 {
		t.Errorf("expected empty envelope, got %v", r.Headers())
	}
}

func TestNewBasicRequest_NilValueIsAbsent(t *testing.T) {
	r, err := NewBasicRequest(map[string]any{KeyClientID: nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ClientID != nil {
		t.Error("nil value should leave the field unset")
	}
}

func TestNewBasicRequest_NotString(t *testing.T) {
	_, err := NewBasicRequest(map[string]any{KeyTimestamp: 1700000000})
	if !errors.Is(err, ErrNotString) {
		t.Errorf("expected ErrNotString, got %v", err)
	}
}

func TestNewUserRequest(t *testing.T) {
	r, err := NewUserRequest(map[string]any{
		KeyClientID:    "client",
		KeyAccessToken: "access",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.AccessToken == nil || *r.AccessToken != "access" {
		t.Errorf("unexpected access token: %v", r.AccessToken)
	}
	if r.ClientID == nil || *r.ClientID != "client" {
		t.Errorf("unexpected client id: %v", r.ClientID)
	}
}

func TestNewUserRequest_NotString(t *testing.T) {
	if _, err := NewUserRequest(map[string]any{KeyAccessToken: []byte("x")}); !errors.Is(err, ErrNotString) {
		t.Errorf("expected ErrNotString for access token, got %v", err)
	}
	if _, err := NewUserRequest(map[string]any{KeyRequestID: true}); !errors.Is(err, ErrNotString) {
		t.Errorf("expected ErrNotString for request id, got %v", err)
	}
}

func TestFluentSettersAndHeaders(t *testing.T) {
	r := &UserRequest{}
	r.WithClientID("c").WithTimestamp("1").WithRequestSign("s").WithRequestID("id")
	r.WithAccessToken("tok")

	want := map[string]string{
		KeyClientID:    "c",
		KeyTimestamp:   "1",
		KeyRequestSign: "s",
		KeyRequestID:   "id",
		KeyAccessToken: "tok",
	}
	got := r.Headers()
	if len(got) != len(want) {
		t.Fatalf("expected %d headers, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestWithNewRequestID(t *testing.T) {
	r := (&BasicRequest{}).WithNewRequestID()
	if r.RequestID == nil {
		t.Fatal("expected request id")
	}
	if _, err := uuid.Parse(*r.RequestID); err != nil {
		t.Errorf("request id is not a UUID: %v", err)
	}

	other := (&BasicRequest{}).WithNewRequestID()
	if *other.RequestID == *r.RequestID {
		t.Error("expected distinct request ids")
	}
}

func TestRoundTripThroughHeaders(t *testing.T) {
	orig := (&BasicRequest{}).WithClientID("c").WithRequestSign("s")
	params := map[string]any{}
	for k, v := range orig.Headers() {
		params[k] = v
	}
	back, err := NewBasicRequest(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *back.ClientID != "c" || *back.RequestSign != "s" || back.Timestamp != nil {
		t.Errorf("unexpected round trip result: %+v", back)
	}
}
