package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	return m
}

func TestNew(t *testing.T) {
	cfg := &Config{Level: "debug", Format: "json"}
	l := New(cfg, "gs2.test")
	if l == nil {
		t.Fatal("New returned nil")
	}
	if l.Component() != "gs2.test" {
		t.Errorf("expected component gs2.test, got %q", l.Component())
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := New(&Config{Level: "nope", Format: "json"}, "")
	if got := l.Zerolog().GetLevel().String(); got != "info" {
		t.Errorf("expected info level, got %s", got)
	}
}

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	l.Warn("shown", Fields(FieldAttempt, 2))
	m := decodeLine(t, &buf)
	if m["message"] != "shown" {
		t.Errorf("unexpected message: %v", m["message"])
	}
	if m[FieldAttempt] != float64(2) {
		t.Errorf("expected attempt=2, got %v", m[FieldAttempt])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").WithComponent("gs2.transport")
	l.Debug("evict")
	m := decodeLine(t, &buf)
	if m[FieldComponent] != "gs2.transport" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").WithFields(Fields(FieldService, "inventory", FieldFunction, "getItem"))
	l.Info("call")
	m := decodeLine(t, &buf)
	if m[FieldService] != "inventory" || m[FieldFunction] != "getItem" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").WithError(fmt.Errorf("connection reset"))
	l.Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "connection reset" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l := NewWithWriter(&bytes.Buffer{}, "debug")
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when the context carries no span")
	}
}

func TestWithContext_Span(t *testing.T) {
	var buf bytes.Buffer
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	NewWithWriter(&buf, "debug").WithContext(ctx).Info("traced")
	m := decodeLine(t, &buf)
	if m[FieldTraceID] != traceID.String() {
		t.Errorf("expected trace id %s, got %v", traceID, m[FieldTraceID])
	}
	if m[FieldSpanID] != spanID.String() {
		t.Errorf("expected span id %s, got %v", spanID, m[FieldSpanID])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("discarded")
	if l.Zerolog().GetLevel().String() != "disabled" {
		t.Errorf("expected disabled level, got %s", l.Zerolog().GetLevel())
	}
}

func TestGlobalLogger(t *testing.T) {
	orig := GetGlobalLogger()
	defer SetGlobalLogger(orig)

	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, "info"))
	GetGlobalLogger().Info("global")
	if !strings.Contains(buf.String(), "global") {
		t.Errorf("expected global logger output, got %q", buf.String())
	}
}

func TestInit(t *testing.T) {
	orig := GetGlobalLogger()
	defer SetGlobalLogger(orig)

	Init(Config{Level: "error"})
	if got := GetGlobalLogger().Zerolog().GetLevel().String(); got != "error" {
		t.Errorf("expected error level, got %s", got)
	}
}

func TestRegistry(t *testing.T) {
	var buf bytes.Buffer
	named := NewWithWriter(&buf, "debug")
	Register("gs2.unit", named)
	defer Unregister("gs2.unit")

	if Get("gs2.unit") != named {
		t.Error("expected registered logger")
	}

	fallback := Get("gs2.unregistered")
	if fallback.Component() != "gs2.unregistered" {
		t.Errorf("expected fallback tagged with name, got %q", fallback.Component())
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "json" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields_OddArgs(t *testing.T) {
	m := Fields("a", 1, "dangling")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestMergeWithDuration(t *testing.T) {
	m := MergeWithDuration(nil, 1500*1000*1000)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}
