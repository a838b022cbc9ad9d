package flow

import (
	"fmt"

	"github.com/kbukum/docpipe/errors"
)

// SourceKind is the category of the underlying source value. It is
// determined once at instance construction and selects which subgraph
// of nodes applies.
type SourceKind string

const (
	// KindAny is the wildcard: specs declared with it apply to every kind.
	KindAny SourceKind = "any"
	// KindPathList marks a sequence of file paths.
	KindPathList SourceKind = "path_list"
	// KindDirectory marks a single directory path.
	KindDirectory SourceKind = "directory"
	// KindCollection marks a pre-partitioned lazy collection.
	KindCollection SourceKind = "collection"
	// KindDatabase marks a database connection descriptor.
	KindDatabase SourceKind = "database"
)

// Kinds is the closed set of concrete source kinds (wildcard excluded).
func Kinds() []SourceKind {
	return []SourceKind{KindPathList, KindDirectory, KindCollection, KindDatabase}
}

// Matcher pairs a kind with a predicate over source values.
type Matcher struct {
	Kind  SourceKind
	Match func(source any) bool
}

// Resolver classifies source values using an ordered matcher list.
// The first matching kind wins.
type Resolver struct {
	matchers []Matcher
}

// NewResolver creates a Resolver from an ordered matcher list.
func NewResolver(matchers ...Matcher) *Resolver {
	return &Resolver{matchers: matchers}
}

// Resolve returns the kind of source, or an UNSUPPORTED_SOURCE error
// when no matcher accepts it.
func (r *Resolver) Resolve(source any) (SourceKind, error) {
	for _, m := range r.matchers {
		if m.Match(source) {
			return m.Kind, nil
		}
	}
	return "", errors.UnsupportedSource(fmt.Sprintf("%T", source))
}
