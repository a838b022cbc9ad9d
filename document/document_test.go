package document

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/docpipe/bag"
)

// mapExtractor serves canned payloads per path.
type mapExtractor struct {
	payloads map[string]map[string]any
	calls    int
}

func (m *mapExtractor) Extract(_ context.Context, path string) (map[string]any, error) {
	m.calls++
	p, ok := m.payloads[path]
	if !ok {
		return nil, fmt.Errorf("no extractor output for %s", path)
	}
	return p, nil
}

func TestFromElement_ConfigInheritance(t *testing.T) {
	f := NewFactory(map[string]any{"ocr": true, "lang_hint": "en"}, nil)
	e := bag.NewElement(0, map[string]any{KeyPath: "/data/a.pdf", "lang_hint": "de"})

	doc := f.FromElement(e)

	if v, _ := doc.Property("ocr"); v != true {
		t.Fatalf("expected inherited config value, got %v", v)
	}
	if v, _ := doc.Property("lang_hint"); v != "de" {
		t.Fatalf("payload must override config, got %v", v)
	}
	if v, _ := doc.ConfigValue("lang_hint"); v != "en" {
		t.Fatalf("ConfigValue must ignore payload, got %v", v)
	}
}

func TestFromElement_PathAndSource(t *testing.T) {
	f := NewFactory(nil, nil)
	doc := f.FromElement(bag.NewElement(0, map[string]any{
		KeyPath:   "/data/reports/q3.pdf",
		KeySource: "https://example.com/q3.pdf",
	}))

	if doc.Filename() != "q3.pdf" {
		t.Fatalf("expected q3.pdf, got %s", doc.Filename())
	}
	if doc.Source() != "https://example.com/q3.pdf" {
		t.Fatalf("explicit source must win, got %s", doc.Source())
	}
}

func TestDocument_PayloadAccessors(t *testing.T) {
	f := NewFactory(nil, nil)
	doc := f.FromElement(bag.NewElement(0, map[string]any{
		"full_text": "hello world",
		"textboxes": []string{"hello", "world"},
		"lang":      "en",
		"keywords":  []string{"greeting"},
		"meta":      map[string]any{"author": "jane"},
	}))

	if doc.FullText() != "hello world" {
		t.Fatalf("unexpected full text: %q", doc.FullText())
	}
	if len(doc.Textboxes()) != 2 {
		t.Fatalf("expected 2 textboxes, got %v", doc.Textboxes())
	}
	if doc.Language() != "en" {
		t.Fatalf("expected en, got %s", doc.Language())
	}
	if doc.Keywords()[0] != "greeting" {
		t.Fatalf("unexpected keywords: %v", doc.Keywords())
	}
	if doc.MetaInfo()["author"] != "jane" {
		t.Fatalf("unexpected meta: %v", doc.MetaInfo())
	}
}

func TestDocument_Defaults(t *testing.T) {
	f := NewFactory(nil, nil)
	doc := f.FromElement(bag.NewElement(0, map[string]any{}))

	if doc.MimeType() != "unknown" {
		t.Fatalf("expected unknown mime, got %s", doc.MimeType())
	}
	if doc.Language() != "unknown" {
		t.Fatalf("expected unknown language, got %s", doc.Language())
	}
	if doc.Filename() != "" {
		t.Fatalf("expected empty filename, got %s", doc.Filename())
	}
}

func TestExtractTransform_MergesPayload(t *testing.T) {
	ex := &mapExtractor{payloads: map[string]map[string]any{
		"/data/a.txt": {"full_text": "alpha"},
	}}
	f := NewFactory(nil, ex)

	b := bag.FromPayloads(bag.Config{}, []map[string]any{{KeyPath: "/data/a.txt"}}).
		Transform("extract", f.ExtractTransform())

	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Payload["full_text"] != "alpha" {
		t.Fatalf("expected merged extraction, got %v", out[0].Payload)
	}
	if out[0].Payload[KeyPath] != "/data/a.txt" {
		t.Fatal("original payload keys must survive the merge")
	}
}

func TestConstructAll_MarkersYieldNil(t *testing.T) {
	ex := &mapExtractor{payloads: map[string]map[string]any{
		"/a.txt": {"full_text": "a"},
		"/c.txt": {"full_text": "c"},
	}}
	f := NewFactory(nil, ex)

	b := bag.FromPayloads(bag.Config{Forgiving: true}, []map[string]any{
		{KeyPath: "/a.txt"},
		{KeyPath: "/b.txt"}, // extractor has no entry; fails
		{KeyPath: "/c.txt"},
	}).Transform("extract", f.ExtractTransform())

	docs, err := f.ConstructAll(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(docs))
	}
	if docs[0] == nil || docs[2] == nil {
		t.Fatal("successful elements must build documents")
	}
	if docs[1] != nil {
		t.Fatal("marker element must yield a nil document")
	}
}

func TestFromPath_RunsExtractor(t *testing.T) {
	ex := &mapExtractor{payloads: map[string]map[string]any{
		"/data/x.md": {"full_text": "x body"},
	}}
	f := NewFactory(map[string]any{"ocr": false}, ex)

	doc, err := f.FromPath(context.Background(), "/data/x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FullText() != "x body" {
		t.Fatalf("expected extracted text, got %q", doc.FullText())
	}
	if ex.calls != 1 {
		t.Fatalf("expected one extractor call, got %d", ex.calls)
	}
	// /data/x.md does not exist; detection falls back to the extension
	if doc.MimeType() == "" {
		t.Fatal("expected non-empty mime type from extension fallback")
	}
}
