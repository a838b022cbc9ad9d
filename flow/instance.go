package flow

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/docpipe/errors"
	"github.com/kbukum/docpipe/logger"
	"github.com/kbukum/docpipe/observability"
)

// Instance is the per-batch evaluator over a shared Graph: it owns the
// resolved source kind, constructor overrides, and the memoizing node
// cache. The cache grows monotonically and is discarded with the
// instance.
type Instance struct {
	graph   *Graph
	kind    SourceKind
	log     *logger.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	cache    map[string]outcome
	inflight map[string]*call
}

// InstanceOption configures optional instance behavior.
type InstanceOption func(*Instance)

// WithInstanceMetrics records every node computation on the given
// instruments.
func WithInstanceMetrics(m *observability.Metrics) InstanceOption {
	return func(in *Instance) { in.metrics = m }
}

// outcome is a cached node result. Errors memoize too, so a failing
// node function still runs at most once per instance. Cancellation
// errors are excluded; see Get.
type outcome struct {
	val any
	err error
}

// isCancellation reports whether err originates from the caller's
// context rather than the node itself.
func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

type call struct {
	done chan struct{}
	out  outcome
}

// NewInstance creates an evaluator for one resolved source kind.
// Overrides pre-populate the cache: those names are marked computed and
// their node functions never run.
func NewInstance(graph *Graph, kind SourceKind, overrides map[string]any, log *logger.Logger, opts ...InstanceOption) *Instance {
	if log == nil {
		log = logger.Nop()
	}
	in := &Instance{
		graph:    graph,
		kind:     kind,
		log:      log.WithComponent("flow"),
		cache:    make(map[string]outcome, len(overrides)),
		inflight: make(map[string]*call),
	}
	for name, val := range overrides {
		in.cache[name] = outcome{val: val}
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Kind returns the instance's resolved source kind.
func (in *Instance) Kind() SourceKind { return in.kind }

// Graph returns the shared graph.
func (in *Instance) Graph() *Graph { return in.graph }

// Get returns the value of the named node, computing it on first
// request. Overrides win over functions; aliases resolve through their
// target; results are memoized permanently with at-most-once function
// execution even under concurrent requests. Context cancellations are
// the one exception: they are never cached, so a later Get with a live
// context recomputes the node instead of replaying a stale deadline.
func (in *Instance) Get(ctx context.Context, name string) (any, error) {
	in.mu.Lock()
	if out, ok := in.cache[name]; ok {
		in.mu.Unlock()
		return out.val, out.err
	}
	if c, ok := in.inflight[name]; ok {
		in.mu.Unlock()
		select {
		case <-c.done:
			return c.out.val, c.out.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	in.inflight[name] = c
	in.mu.Unlock()

	val, err := in.compute(ctx, name)

	in.mu.Lock()
	if !isCancellation(err) {
		in.cache[name] = outcome{val: val, err: err}
	}
	delete(in.inflight, name)
	in.mu.Unlock()

	c.out = outcome{val: val, err: err}
	close(c.done)
	return val, err
}

// MustGet is Get for callers that treat lookup failure as fatal.
func (in *Instance) MustGet(ctx context.Context, name string) any {
	val, err := in.Get(ctx, name)
	if err != nil {
		panic(err)
	}
	return val
}

// Has reports whether name is reachable for the instance's kind,
// either as a node, an alias, or an override.
func (in *Instance) Has(name string) bool {
	in.mu.Lock()
	_, cached := in.cache[name]
	in.mu.Unlock()
	if cached {
		return true
	}
	if _, ok := in.graph.Spec(in.kind, name); ok {
		return true
	}
	_, ok := in.graph.AliasFor(in.kind, name)
	return ok
}

func (in *Instance) compute(ctx context.Context, name string) (any, error) {
	if alias, ok := in.graph.AliasFor(in.kind, name); ok {
		return in.computeAlias(ctx, alias)
	}

	spec, ok := in.graph.Spec(in.kind, name)
	if !ok {
		return nil, errors.UnknownNode(name, string(in.kind))
	}

	if spec.Fn == nil {
		return spec.Default, nil
	}

	deps := make(Values, len(spec.Deps))
	for _, dep := range spec.Deps {
		val, err := in.Get(ctx, dep)
		if err != nil {
			return nil, err
		}
		deps[dep] = val
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanNodeCompute)
	defer span.End()
	observability.SetSpanAttribute(ctx, "node", spec.Name)
	observability.SetSpanAttribute(ctx, "source_kind", string(in.kind))

	fn := WithMetrics(spec.Name, in.kind, in.metrics, spec.Fn)

	start := time.Now()
	val, err := fn(ctx, deps)
	duration := time.Since(start)

	if err != nil {
		observability.SetSpanError(ctx, err)
		in.log.Error("node failed", logger.Fields(
			logger.FieldNode, spec.Name,
			logger.FieldKind, string(in.kind),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	in.log.Debug("node computed", logger.Fields(
		logger.FieldNode, spec.Name,
		logger.FieldKind, string(in.kind),
		logger.FieldDuration, duration.Milliseconds(),
	))
	return val, nil
}

// computeAlias resolves the target node and extracts the alias key from
// its mapping-shaped result. The extracted value is cached under the
// alias name by Get.
func (in *Instance) computeAlias(ctx context.Context, alias *Alias) (any, error) {
	target, err := in.Get(ctx, alias.Target)
	if err != nil {
		return nil, err
	}

	switch m := target.(type) {
	case map[string]any:
		if val, ok := m[alias.Key]; ok {
			return val, nil
		}
	case Values:
		if val, ok := m[alias.Key]; ok {
			return val, nil
		}
	default:
		return nil, errors.Internal("alias target is not mapping-shaped").
			WithDetail("alias", alias.Name).
			WithDetail("target", alias.Target)
	}
	return nil, errors.Internal("alias key missing from target result").
		WithDetail("alias", alias.Name).
		WithDetail("target", alias.Target).
		WithDetail("key", alias.Key)
}
