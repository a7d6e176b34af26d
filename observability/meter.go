package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/gs2kit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service embedding the SDK.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) *MeterConfig {
	return &MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The caller shuts it down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("gs2.observability").Info("meter initialized", logger.Fields(
		logger.FieldService, config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric instrument names.
const (
	MetricCallTotal    = "gs2.client.call.total"
	MetricCallDuration = "gs2.client.call.duration"
	MetricCallActive   = "gs2.client.call.active"
	MetricErrorTotal   = "gs2.client.error.total"
)

// Metrics holds the instruments recorded for client calls.
type Metrics struct {
	callTotal    metric.Int64Counter
	callDuration metric.Float64Histogram
	callActive   metric.Int64UpDownCounter
	errorTotal   metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	callTotal, err := meter.Int64Counter(MetricCallTotal,
		metric.WithDescription("Total number of GS2 calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCallTotal, err)
	}

	callDuration, err := meter.Float64Histogram(MetricCallDuration,
		metric.WithDescription("Duration of GS2 calls in seconds, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricCallDuration, err)
	}

	callActive, err := meter.Int64UpDownCounter(MetricCallActive,
		metric.WithDescription("Number of GS2 calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricCallActive, err)
	}

	errorTotal, err := meter.Int64Counter(MetricErrorTotal,
		metric.WithDescription("Total GS2 call errors by kind and service"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrorTotal, err)
	}

	return &Metrics{
		callTotal:    callTotal,
		callDuration: callDuration,
		callActive:   callActive,
		errorTotal:   errorTotal,
	}, nil
}

// RecordCallStart increments the in-flight call count.
func (m *Metrics) RecordCallStart(ctx context.Context) {
	m.callActive.Add(ctx, 1)
}

// RecordCall decrements the in-flight count and records a finished call.
func (m *Metrics) RecordCall(ctx context.Context, service, function, status string, duration time.Duration) {
	m.callActive.Add(ctx, -1)
	m.callTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("function", function),
		attribute.String("status", status),
	))
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("function", function),
	))
}

// RecordError records a failed call by error kind and service.
func (m *Metrics) RecordError(ctx context.Context, kind, service string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("service", service),
	))
}
