// Package document provides the document objects produced per
// collection element and the factory that constructs them.
//
// A Document carries the instance-wide configuration snapshot plus the
// element's extracted payload; payload keys override configuration keys
// of the same name. Content extraction itself is out of scope and
// reached through the narrow Extractor interface.
package document

import (
	"context"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Extractor is the narrow contract for per-document content extraction.
// Implementations parse a file into a payload of extracted properties
// (full_text, textboxes, tables, ...). Parsers live outside the engine.
type Extractor interface {
	Extract(ctx context.Context, path string) (map[string]any, error)
}

// Document is one document-like object built from a collection element.
type Document struct {
	path     string
	source   string
	mimeType string
	config   map[string]any
	payload  map[string]any
}

// Filename returns the base name of the document's path.
func (d *Document) Filename() string {
	if d.path == "" {
		return ""
	}
	return filepath.Base(d.path)
}

// Path returns the document's path, if it came from a file.
func (d *Document) Path() string { return d.path }

// Source describes where the document came from (a path, a URL, a
// table name).
func (d *Document) Source() string { return d.source }

// MimeType returns the detected mime type, or "unknown".
func (d *Document) MimeType() string {
	if d.mimeType == "" {
		return "unknown"
	}
	return d.mimeType
}

// Property returns one extracted payload value. Payload keys shadow
// configuration keys of the same name.
func (d *Document) Property(name string) (any, bool) {
	if v, ok := d.payload[name]; ok {
		return v, true
	}
	v, ok := d.config[name]
	return v, ok
}

// ConfigValue returns one configuration value, ignoring the payload.
func (d *Document) ConfigValue(name string) (any, bool) {
	v, ok := d.config[name]
	return v, ok
}

// Payload returns the extracted payload. Callers must not mutate it.
func (d *Document) Payload() map[string]any { return d.payload }

// FullText returns the document's extracted text, or "".
func (d *Document) FullText() string {
	return d.stringProperty("full_text")
}

// Textboxes returns the extracted text blocks.
func (d *Document) Textboxes() []string {
	if v, ok := d.payload["textboxes"]; ok {
		if boxes, ok := v.([]string); ok {
			return boxes
		}
	}
	return nil
}

// Tables returns extracted tables in row-wise form.
func (d *Document) Tables() []map[string]any {
	if v, ok := d.payload["tables"]; ok {
		if tables, ok := v.([]map[string]any); ok {
			return tables
		}
	}
	return nil
}

// Language returns the detected language code, or "unknown".
func (d *Document) Language() string {
	if lang := d.stringProperty("lang"); lang != "" {
		return lang
	}
	return "unknown"
}

// Keywords returns document keywords, extracted or generated.
func (d *Document) Keywords() []string {
	if v, ok := d.payload["keywords"]; ok {
		if kw, ok := v.([]string); ok {
			return kw
		}
	}
	return nil
}

// MetaInfo returns document metadata (author, creation date, ...).
func (d *Document) MetaInfo() map[string]any {
	if v, ok := d.payload["meta"]; ok {
		if meta, ok := v.(map[string]any); ok {
			return meta
		}
	}
	return nil
}

func (d *Document) stringProperty(name string) string {
	if v, ok := d.payload[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// detectMime detects a file's mime type, falling back to the extension
// when the file cannot be read.
func detectMime(path string) string {
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	if ext := filepath.Ext(path); ext != "" {
		if mt := mimetype.Lookup(extFallback(ext)); mt != nil {
			return mt.String()
		}
	}
	return ""
}

// extFallback maps common document extensions onto representative mime
// strings understood by mimetype.Lookup.
func extFallback(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".md", ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
