package docbag

import (
	"context"

	"github.com/kbukum/docpipe/aggregate"
	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/errors"
	"github.com/kbukum/docpipe/flow"
	"github.com/kbukum/docpipe/logger"
)

// Pipeline binds one source value to the shared document-bag graph.
// Node values are computed on demand and cached for the pipeline's
// lifetime; a new source means a new Pipeline.
type Pipeline struct {
	inst *flow.Instance
	opts Options
	log  *logger.Logger
}

// New classifies the source, validates kind-specific requirements, and
// returns a pipeline over the shared graph.
func New(opts Options) (*Pipeline, error) {
	opts.applyDefaults()

	kind, err := resolver.Resolve(opts.Source)
	if err != nil {
		return nil, err
	}
	if kind == flow.KindDatabase && opts.Loader == nil {
		return nil, errors.MissingField("loader")
	}

	overrides := map[string]any{
		NodeSource:        opts.Source,
		NodeConfiguration: docConfiguration(opts.DocConfiguration),
		nodeBagConfig:     opts.bagConfig(),
	}
	if opts.Extractor != nil {
		overrides[nodeExtractor] = opts.Extractor
	}
	if opts.Loader != nil {
		overrides[nodeLoader] = opts.Loader
	}
	if opts.Embedder != nil {
		overrides[nodeEmbedder] = opts.Embedder
	}
	if opts.VectorStore != nil {
		overrides[nodeVectorStore] = opts.VectorStore
	}

	log := opts.Logger.WithComponent("docbag").WithFields(map[string]interface{}{
		logger.FieldKind: string(kind),
	})
	var instOpts []flow.InstanceOption
	if opts.Metrics != nil {
		instOpts = append(instOpts, flow.WithInstanceMetrics(opts.Metrics))
	}
	return &Pipeline{
		inst: flow.NewInstance(sharedGraph, kind, overrides, log, instOpts...),
		opts: opts,
		log:  log,
	}, nil
}

func docConfiguration(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// Kind returns the source classification this pipeline was built with.
func (p *Pipeline) Kind() flow.SourceKind { return p.inst.Kind() }

// Get computes and returns the named node or alias.
func (p *Pipeline) Get(ctx context.Context, name string) (any, error) {
	return p.inst.Get(ctx, name)
}

// MustGet is Get for callers that treat lookup failure as fatal.
func (p *Pipeline) MustGet(ctx context.Context, name string) any {
	return p.inst.MustGet(ctx, name)
}

// Has reports whether a node or alias is reachable for this source.
func (p *Pipeline) Has(name string) bool { return p.inst.Has(name) }

// Bag returns the raw source collection, before document extraction.
func (p *Pipeline) Bag(ctx context.Context) (*bag.Bag, error) {
	v, err := p.inst.Get(ctx, NodeBag)
	if err != nil {
		return nil, err
	}
	return v.(*bag.Bag), nil
}

// Docs returns the lazy collection of extracted document payloads.
func (p *Pipeline) Docs(ctx context.Context) (*bag.Bag, error) {
	v, err := p.inst.Get(ctx, NodeDocs)
	if err != nil {
		return nil, err
	}
	return v.(*bag.Bag), nil
}

// Stats realizes the documents and returns one summary row per element.
func (p *Pipeline) Stats(ctx context.Context) (*aggregate.Frame, error) {
	v, err := p.inst.Get(ctx, NodeStats)
	if err != nil {
		return nil, err
	}
	return v.(*aggregate.Frame), nil
}

// Dataframe realizes the documents into a tabular frame.
func (p *Pipeline) Dataframe(ctx context.Context) (*aggregate.Frame, error) {
	v, err := p.inst.Get(ctx, NodeDataframe)
	if err != nil {
		return nil, err
	}
	return v.(*aggregate.Frame), nil
}

// Take realizes at most n document elements.
func (p *Pipeline) Take(ctx context.Context, n int) ([]bag.Element, error) {
	v, err := p.inst.Get(ctx, NodeTake)
	if err != nil {
		return nil, err
	}
	return v.(TakeFunc)(ctx, n)
}

// Compute realizes all document elements.
func (p *Pipeline) Compute(ctx context.Context) ([]bag.Element, error) {
	v, err := p.inst.Get(ctx, NodeCompute)
	if err != nil {
		return nil, err
	}
	return v.(ComputeFunc)(ctx)
}

// GetDicts returns a parallel lazy collection holding only the named
// property per document.
func (p *Pipeline) GetDicts(ctx context.Context, property string) (*bag.Bag, error) {
	docs, err := p.Docs(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.GetDicts(docs, property), nil
}

// AddToVectorIndex streams the documents' vector entries into the
// configured store and returns the number written.
func (p *Pipeline) AddToVectorIndex(ctx context.Context) (int, error) {
	v, err := p.inst.Get(ctx, NodeAddToIndex)
	if err != nil {
		return 0, err
	}
	return v.(IndexFunc)(ctx)
}

// Apply transforms the document collection and wraps the result in a
// fresh pipeline, so derived data keeps the full node vocabulary. The
// underlying work stays lazy until a realization is requested.
func (p *Pipeline) Apply(ctx context.Context, name string, fn bag.TransformFunc) (*Pipeline, error) {
	docs, err := p.Docs(ctx)
	if err != nil {
		return nil, err
	}
	derived := p.opts
	derived.Source = docs.Transform(name, fn)
	derived.Extractor = nil
	return New(derived)
}
