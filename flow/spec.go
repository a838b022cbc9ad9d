package flow

import "context"

// Values holds resolved dependency values keyed by dependency node name.
type Values map[string]any

// NodeFunc produces a node's value from its resolved dependencies.
type NodeFunc func(ctx context.Context, deps Values) (any, error)

// NodeSpec describes one named computation in the graph.
// Specs are defined once and shared read-only across all instances.
type NodeSpec struct {
	// Name is the unique node identifier within a source kind.
	Name string
	// Kinds lists the source kinds this spec applies to. Containing
	// KindAny (or being empty) makes the spec apply to every kind.
	Kinds []SourceKind
	// Deps are the dependency node names, resolved before Fn runs.
	Deps []string
	// Fn computes the value. Nil marks a configuration leaf whose
	// value is Default unless overridden at instance construction.
	Fn NodeFunc
	// Default is the leaf value used when Fn is nil.
	Default any
}

// appliesTo reports whether the spec is reachable for kind.
func (s *NodeSpec) appliesTo(kind SourceKind) bool {
	if len(s.Kinds) == 0 {
		return true
	}
	for _, k := range s.Kinds {
		if k == KindAny || k == kind {
			return true
		}
	}
	return false
}

// Alias is a name that transparently resolves to one output key of
// another node's mapping-shaped result.
type Alias struct {
	// Name is the alias itself.
	Name string
	// Target is the node whose result is indexed.
	Target string
	// Key is the output key extracted from the target's result.
	Key string
	// Kinds restricts the alias to source kinds, like NodeSpec.Kinds.
	Kinds []SourceKind
}

func (a *Alias) appliesTo(kind SourceKind) bool {
	if len(a.Kinds) == 0 {
		return true
	}
	for _, k := range a.Kinds {
		if k == KindAny || k == kind {
			return true
		}
	}
	return false
}
