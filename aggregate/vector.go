package aggregate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/errors"
)

// vectorNamespace seeds deterministic entry keys. Fixed so identical
// sources produce identical keys across runs.
var vectorNamespace = uuid.MustParse("7a0e42de-9d2c-45af-8fbc-1f9b4f7f3a60")

// Embedder is the narrow contract for the external embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the narrow contract for the external vector index.
// The engine only produces entries; storage and similarity search stay
// outside.
type VectorStore interface {
	Upsert(ctx context.Context, entry Entry) error
}

// Entry is the (key, text, embedding) triple handed to a VectorStore.
type Entry struct {
	Key       string
	Text      string
	Embedding []float32
}

// EntryKey derives the stable key for an element's property: UUIDv5
// over the provenance path and property name.
func EntryKey(path []int, property string) string {
	name := fmt.Sprintf("%s:%v", property, path)
	return uuid.NewSHA1(vectorNamespace, []byte(name)).String()
}

// Vectorizer computes index entries from a bag's elements.
type Vectorizer struct {
	embedder Embedder
	property string
}

// NewVectorizer creates a vectorizer over the named text property.
func NewVectorizer(embedder Embedder, property string) *Vectorizer {
	if property == "" {
		property = "full_text"
	}
	return &Vectorizer{embedder: embedder, property: property}
}

// Entry computes one element's index entry.
func (v *Vectorizer) Entry(ctx context.Context, e bag.Element) (Entry, error) {
	raw, ok := e.Property(v.property)
	if !ok {
		return Entry{}, errors.MissingField(v.property)
	}
	text, ok := raw.(string)
	if !ok {
		return Entry{}, errors.InvalidInput(v.property, "vectorized property must be a string")
	}

	embedding, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Key:       EntryKey(e.Path, v.property),
		Text:      text,
		Embedding: embedding,
	}, nil
}

// AddToIndex streams the bag's entries into the store, in source
// order, skipping marker elements. Returns the upserted count.
func (v *Vectorizer) AddToIndex(ctx context.Context, b *bag.Bag, store VectorStore) (int, error) {
	count := 0
	err := b.ForEach(ctx, func(ctx context.Context, e bag.Element) error {
		if bag.IsMarker(e) {
			return nil
		}
		entry, err := v.Entry(ctx, e)
		if err != nil {
			return err
		}
		if err := store.Upsert(ctx, entry); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
