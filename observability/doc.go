// Package observability wires OpenTelemetry tracing and metrics for GS2 calls.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("game-backend"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("game-backend"))
//	defer mp.Shutdown(ctx)
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//
// Each client call is tracked by a CallContext, which opens the
// "gs2.<service>.<function>" span and records the call metrics when it ends.
package observability
