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
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
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
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
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
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry metric instruments for pipeline observability.
type Metrics struct {
	nodeTotal       metric.Int64Counter
	nodeDuration    metric.Float64Histogram
	elementTotal    metric.Int64Counter
	elementFailures metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodeTotal, err := meter.Int64Counter("node.total",
		metric.WithDescription("Total number of node computations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("node.duration",
		metric.WithDescription("Duration of node computations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.duration histogram: %w", err)
	}

	elementTotal, err := meter.Int64Counter("element.total",
		metric.WithDescription("Total number of elements realized"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating element.total counter: %w", err)
	}

	elementFailures, err := meter.Int64Counter("element.failures",
		metric.WithDescription("Elements replaced by error markers in forgiving mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating element.failures counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		nodeTotal:       nodeTotal,
		nodeDuration:    nodeDuration,
		elementTotal:    elementTotal,
		elementFailures: elementFailures,
		errorTotal:      errorTotal,
	}, nil
}

// RecordNode records a node computation.
func (m *Metrics) RecordNode(ctx context.Context, node, kind, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("source_kind", kind),
		attribute.String("status", status),
	)
	m.nodeTotal.Add(ctx, 1, attrs)
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("source_kind", kind),
	))
}

// RecordElements records realized element counts for a bag operation.
func (m *Metrics) RecordElements(ctx context.Context, operation string, count, failures int64) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.elementTotal.Add(ctx, count, attrs)
	if failures > 0 {
		m.elementFailures.Add(ctx, failures, attrs)
	}
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
