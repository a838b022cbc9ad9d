package document

import (
	"context"

	"github.com/kbukum/docpipe/bag"
)

// Payload keys recognized by the factory.
const (
	KeyPath   = "path"
	KeySource = "source"
	KeyMime   = "mime_type"
)

// Factory constructs one Document per collection element, seeding each
// with the instance's shared configuration. Keys present in an
// element's payload override the shared configuration locally.
type Factory struct {
	config    map[string]any
	extractor Extractor
}

// NewFactory creates a factory over a shared configuration snapshot.
// The extractor may be nil when payloads arrive pre-extracted (table
// rows, pre-built collections).
func NewFactory(config map[string]any, extractor Extractor) *Factory {
	if config == nil {
		config = map[string]any{}
	}
	return &Factory{config: config, extractor: extractor}
}

// FromElement builds a Document from an element's payload.
func (f *Factory) FromElement(e bag.Element) *Document {
	doc := &Document{
		config:  f.config,
		payload: e.Payload,
	}
	if v, ok := e.Payload[KeyPath]; ok {
		if path, ok := v.(string); ok {
			doc.path = path
			doc.source = path
		}
	}
	if v, ok := e.Payload[KeySource]; ok {
		if src, ok := v.(string); ok {
			doc.source = src
		}
	}
	if v, ok := e.Payload[KeyMime]; ok {
		if mt, ok := v.(string); ok {
			doc.mimeType = mt
		}
	}
	return doc
}

// FromPath builds a Document directly from a file path, running the
// extractor when one is configured and detecting the mime type.
func (f *Factory) FromPath(ctx context.Context, path string) (*Document, error) {
	payload := map[string]any{KeyPath: path}
	if f.extractor != nil {
		extracted, err := f.extractor.Extract(ctx, path)
		if err != nil {
			return nil, err
		}
		for k, v := range extracted {
			payload[k] = v
		}
	}
	return &Document{
		path:     path,
		source:   path,
		mimeType: detectMime(path),
		config:   f.config,
		payload:  payload,
	}, nil
}

// ExtractTransform returns a bag transform that runs the extractor on
// each path-carrying element, merging extracted properties into the
// payload. Elements without a path pass through unchanged.
func (f *Factory) ExtractTransform() bag.TransformFunc {
	return func(ctx context.Context, e bag.Element) (map[string]any, error) {
		v, ok := e.Payload[KeyPath]
		if !ok || f.extractor == nil {
			return e.Payload, nil
		}
		path, ok := v.(string)
		if !ok {
			return e.Payload, nil
		}

		extracted, err := f.extractor.Extract(ctx, path)
		if err != nil {
			return nil, err
		}
		merged := make(map[string]any, len(e.Payload)+len(extracted))
		for k, val := range e.Payload {
			merged[k] = val
		}
		for k, val := range extracted {
			merged[k] = val
		}
		return merged, nil
	}
}

// ConstructAll realizes the bag and builds one Document per element,
// in source order. Elements carrying error markers yield nil entries
// so positions stay aligned with the source.
func (f *Factory) ConstructAll(ctx context.Context, b *bag.Bag) ([]*Document, error) {
	elements, err := b.Compute(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, len(elements))
	for i, e := range elements {
		if bag.IsMarker(e) {
			continue
		}
		docs[i] = f.FromElement(e)
	}
	return docs, nil
}
