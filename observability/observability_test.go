package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installRecorder routes spans to an in-memory exporter for the test.
func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func newManualMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := NewMetrics(mp.Meter(InstrumentationName))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("game-backend")
	if cfg.ServiceName != "game-backend" {
		t.Errorf("expected ServiceName 'game-backend', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("game-backend")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected Environment 'development', got %q", cfg.Environment)
	}
}

func TestSpanName(t *testing.T) {
	if got := SpanName("inventory", "getItem"); got != "gs2.inventory.getItem" {
		t.Errorf("unexpected span name %q", got)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("game-backend", "2.0.0", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		found[kv.Key] = kv.Value.Emit()
	}
	if found["service.name"] != "game-backend" {
		t.Errorf("expected service.name, got %v", found)
	}
	if found["deployment.environment"] != "test" {
		t.Errorf("expected deployment.environment, got %v", found)
	}
}

func TestCallContext_Success(t *testing.T) {
	exporter := installRecorder(t)
	metrics, reader := newManualMetrics(t)

	cc := NewCallContext("inventory", "inventory", "getItem", "ap-northeast-1", "GET", metrics)
	cc.RequestID = "req-1"
	ctx, span := cc.Start(context.Background())
	if CallContextFromContext(ctx) != cc {
		t.Error("expected call context in returned context")
	}
	cc.End(ctx, span, StatusOK, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != "gs2.inventory.getItem" {
		t.Errorf("unexpected span name %q", s.Name)
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range s.Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}
	for k, want := range map[attribute.Key]string{
		AttrService:   "inventory",
		AttrFunction:  "getItem",
		AttrRegion:    "ap-northeast-1",
		AttrRequestID: "req-1",
		AttrStatus:    StatusOK,
	} {
		if attrs[k] != want {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k], want)
		}
	}
	if s.Status.Code == codes.Error {
		t.Error("expected non-error span status")
	}

	data := collect(t, reader)
	if got := sumValue(t, data[MetricCallTotal]); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
	if got := sumValue(t, data[MetricCallActive]); got != 0 {
		t.Errorf("expected no calls in flight, got %d", got)
	}
	if _, ok := data[MetricErrorTotal]; ok {
		t.Error("expected no error recorded")
	}
}

func TestCallContext_Error(t *testing.T) {
	exporter := installRecorder(t)
	metrics, reader := newManualMetrics(t)

	cc := NewCallContext("inventory", "inventory", "getItem", "ap-northeast-1", "GET", metrics)
	ctx, span := cc.Start(context.Background())
	cc.End(ctx, span, "not_found", fmt.Errorf("not found"))

	s := exporter.GetSpans()[0]
	if s.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status.Code)
	}
	if len(s.Events) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}

	data := collect(t, reader)
	if got := sumValue(t, data[MetricErrorTotal]); got != 1 {
		t.Errorf("expected 1 error, got %d", got)
	}
}

func TestCallContext_NilMetrics(t *testing.T) {
	cc := NewCallContext("account", "account", "createAccount", "us-east-1", "POST", nil)
	ctx, span := cc.Start(context.Background())
	cc.End(ctx, span, StatusOK, nil)
}

func TestCallContextFromContext_NotSet(t *testing.T) {
	if CallContextFromContext(context.Background()) != nil {
		t.Error("expected nil when call context not set")
	}
}

func TestCallContext_Duration(t *testing.T) {
	cc := NewCallContext("account", "account", "f", "r", "GET", nil)
	cc.StartTime = time.Now().Add(-50 * time.Millisecond)
	if d := cc.Duration(); d < 45*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", d)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordCallStart(ctx)
	metrics.RecordCall(ctx, "inventory", "getItem", StatusOK, 100*time.Millisecond)
	metrics.RecordError(ctx, "timeout", "inventory")
}

func TestSetSpanError(t *testing.T) {
	exporter := installRecorder(t)
	ctx, span := StartSpan(context.Background(), "test-error")
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()

	if len(exporter.GetSpans()[0].Events) != 1 {
		t.Error("expected one error event")
	}

	// No recording span: must not panic.
	SetSpanError(context.Background(), fmt.Errorf("no span"))
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	tp, err := InitTracer(context.Background(), DefaultTracerConfig("game-backend"))
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitMeter(t *testing.T) {
	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	cfg := DefaultMeterConfig("game-backend")
	cfg.Insecure = false
	mp, err := InitMeter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
