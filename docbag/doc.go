// Package docbag is the document-bag pipeline facade. It classifies a
// source value (file paths, a directory, a prepared collection, or a
// database table descriptor), binds it to the shared operator graph,
// and exposes the graph's node vocabulary through a uniform Get plus
// typed convenience accessors.
//
// The graph itself is built and validated once at package load; every
// Pipeline shares it read-only and keeps its own value cache.
package docbag
