package flow

import (
	"context"
	"time"

	"github.com/kbukum/docpipe/observability"
)

// WithMetrics wraps a NodeFunc with metric recording.
// Records computation count, duration, and errors per node.
func WithMetrics(name string, kind SourceKind, metrics *observability.Metrics, fn NodeFunc) NodeFunc {
	if metrics == nil || fn == nil {
		return fn
	}
	return func(ctx context.Context, deps Values) (any, error) {
		start := time.Now()
		val, err := fn(ctx, deps)
		duration := time.Since(start)

		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "compute", name)
		}
		metrics.RecordNode(ctx, name, string(kind), status, duration)
		return val, err
	}
}
