package flow

import (
	"github.com/kbukum/docpipe/errors"
)

// Graph is the immutable registry of node specs and aliases.
// Build it once with a Builder and share it across instances.
type Graph struct {
	specs   []*NodeSpec
	aliases []*Alias

	// per-kind lookup tables, precomputed at build time
	subgraphs map[SourceKind]map[string]*NodeSpec
	aliasSets map[SourceKind]map[string]*Alias
}

// Builder accumulates node specs and aliases for a Graph.
type Builder struct {
	specs   []*NodeSpec
	aliases []*Alias
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers node specs. Returns the builder for chaining.
func (b *Builder) Add(specs ...*NodeSpec) *Builder {
	b.specs = append(b.specs, specs...)
	return b
}

// AddAlias registers aliases. Returns the builder for chaining.
func (b *Builder) AddAlias(aliases ...*Alias) *Builder {
	b.aliases = append(b.aliases, aliases...)
	return b
}

// Build validates the accumulated specs and produces the Graph.
// It fails with DUPLICATE_NODE when two specs (or a spec and an alias)
// share a name within one source kind, and with GRAPH_CYCLE when the
// dependency relation restricted to any kind is not acyclic.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		specs:     b.specs,
		aliases:   b.aliases,
		subgraphs: make(map[SourceKind]map[string]*NodeSpec),
		aliasSets: make(map[SourceKind]map[string]*Alias),
	}

	for _, kind := range Kinds() {
		sub := make(map[string]*NodeSpec)
		for _, spec := range b.specs {
			if !spec.appliesTo(kind) {
				continue
			}
			if _, exists := sub[spec.Name]; exists {
				return nil, errors.DuplicateNode(spec.Name, string(kind))
			}
			sub[spec.Name] = spec
		}

		aliasSet := make(map[string]*Alias)
		for _, alias := range b.aliases {
			if !alias.appliesTo(kind) {
				continue
			}
			if _, exists := sub[alias.Name]; exists {
				return nil, errors.DuplicateNode(alias.Name, string(kind))
			}
			if _, exists := aliasSet[alias.Name]; exists {
				return nil, errors.DuplicateNode(alias.Name, string(kind))
			}
			aliasSet[alias.Name] = alias
		}

		if err := checkAcyclic(kind, sub); err != nil {
			return nil, err
		}

		g.subgraphs[kind] = sub
		g.aliasSets[kind] = aliasSet
	}

	return g, nil
}

// checkAcyclic runs Kahn's algorithm over the kind-restricted subgraph.
// Dependencies that are not part of the subgraph are ignored here; they
// may be satisfied by instance overrides and are reported at Get time
// otherwise.
func checkAcyclic(kind SourceKind, sub map[string]*NodeSpec) error {
	inDegree := make(map[string]int, len(sub))
	dependents := make(map[string][]string)

	for name := range sub {
		inDegree[name] = 0
	}
	for name, spec := range sub {
		for _, dep := range spec.Deps {
			if _, ok := sub[dep]; !ok {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		visited += len(queue)
		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(sub) {
		var remaining []string
		for name, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, name)
			}
		}
		return errors.GraphCycle(string(kind), remaining)
	}
	return nil
}

// Subgraph returns every spec reachable for kind, keyed by name.
// The returned map is shared; callers must not mutate it.
func (g *Graph) Subgraph(kind SourceKind) map[string]*NodeSpec {
	return g.subgraphs[kind]
}

// Spec returns the node spec for name under kind.
func (g *Graph) Spec(kind SourceKind, name string) (*NodeSpec, bool) {
	s, ok := g.subgraphs[kind][name]
	return s, ok
}

// AliasFor returns the alias for name under kind.
func (g *Graph) AliasFor(kind SourceKind, name string) (*Alias, bool) {
	a, ok := g.aliasSets[kind][name]
	return a, ok
}

// Names returns all node and alias names reachable for kind.
func (g *Graph) Names(kind SourceKind) []string {
	names := make([]string, 0, len(g.subgraphs[kind])+len(g.aliasSets[kind]))
	for name := range g.subgraphs[kind] {
		names = append(names, name)
	}
	for name := range g.aliasSets[kind] {
		names = append(names, name)
	}
	return names
}
