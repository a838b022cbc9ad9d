// Package flow implements the docpipe pipeline graph engine.
//
// A Graph is an immutable registry of node specifications: name,
// producing function, dependencies, applicable source kinds, optional
// default value, and aliases. Graphs are built once per pipeline type
// and shared read-only across instances; construction validates that
// the dependency relation restricted to each source kind is acyclic
// and free of duplicate names.
//
// A Resolver classifies a concrete source value into exactly one
// SourceKind, which selects the reachable subgraph.
//
// An Instance owns the per-batch node cache: Get computes a node on
// first request, honors constructor overrides, resolves aliases, and
// memoizes permanently with single-flight discipline.
package flow
