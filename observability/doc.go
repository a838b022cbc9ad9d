// Package observability provides OpenTelemetry tracing and metrics for
// docpipe pipelines.
//
// InitTracer and InitMeter set up OTLP HTTP exporters and global
// providers. The flow package wraps node functions with spans and
// operation metrics through the helpers here; nothing in the engine
// requires an exporter to be configured — without one the no-op global
// providers apply.
package observability
