package bag

import (
	"context"

	"github.com/kbukum/docpipe/errors"
)

// TransformFunc consumes one element and returns the payload of its
// replacement.
type TransformFunc func(ctx context.Context, e Element) (map[string]any, error)

// ExplodeFunc consumes one element and returns zero or more child
// payloads, in output order.
type ExplodeFunc func(ctx context.Context, e Element) ([]map[string]any, error)

// Transform returns a lazy element-wise map over the bag. Result order
// matches input order; input elements are never mutated. The name tags
// error markers and failure reports with the originating operation.
func (b *Bag) Transform(name string, fn TransformFunc) *Bag {
	parts := make([]Partition, len(b.parts))
	for i, part := range b.parts {
		part := part
		parts[i] = func(ctx context.Context) Iterator {
			return &transformIter{
				source:    part(ctx),
				fn:        fn,
				name:      name,
				forgiving: b.cfg.Forgiving,
			}
		}
	}
	return &Bag{parts: parts, cfg: b.cfg}
}

// Explode returns a lazy flat-map over the bag. All outputs of element
// i precede all outputs of element i+1; an element mapping to zero
// outputs contributes nothing.
func (b *Bag) Explode(name string, fn ExplodeFunc) *Bag {
	parts := make([]Partition, len(b.parts))
	for i, part := range b.parts {
		part := part
		parts[i] = func(ctx context.Context) Iterator {
			return &explodeIter{
				source:    part(ctx),
				fn:        fn,
				name:      name,
				forgiving: b.cfg.Forgiving,
			}
		}
	}
	return &Bag{parts: parts, cfg: b.cfg}
}

type transformIter struct {
	source    Iterator
	fn        TransformFunc
	name      string
	forgiving bool
}

func (it *transformIter) Next(ctx context.Context) (Element, bool, error) {
	src, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return Element{}, false, err
	}
	if IsMarker(src) {
		// an upstream failure already replaced this element; pass it through
		return src, true, nil
	}

	payload, err := it.fn(ctx, src)
	if err != nil {
		if it.forgiving {
			return markerElement(src, ErrorMarker{
				Kind:    string(errors.CodeOf(err)),
				Message: err.Error(),
				Node:    it.name,
			}), true, nil
		}
		return Element{}, false, errors.ElementFailed(it.name, src.Path, err)
	}
	return src.Derive(payload), true, nil
}

func (it *transformIter) Close() error { return it.source.Close() }

type explodeIter struct {
	source    Iterator
	fn        ExplodeFunc
	name      string
	forgiving bool
	pending   []Element
}

func (it *explodeIter) Next(ctx context.Context) (Element, bool, error) {
	for {
		if len(it.pending) > 0 {
			e := it.pending[0]
			it.pending = it.pending[1:]
			return e, true, nil
		}

		src, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return Element{}, false, err
		}
		if IsMarker(src) {
			return src, true, nil
		}

		payloads, err := it.fn(ctx, src)
		if err != nil {
			if it.forgiving {
				return markerElement(src, ErrorMarker{
					Kind:    string(errors.CodeOf(err)),
					Message: err.Error(),
					Node:    it.name,
				}), true, nil
			}
			return Element{}, false, errors.ElementFailed(it.name, src.Path, err)
		}

		for i, p := range payloads {
			it.pending = append(it.pending, src.Child(i, p))
		}
	}
}

func (it *explodeIter) Close() error { return it.source.Close() }
