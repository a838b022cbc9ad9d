package flow

import (
	"context"
	"testing"

	"github.com/kbukum/docpipe/errors"
)

func constNode(name string, kinds []SourceKind, val any, deps ...string) *NodeSpec {
	return &NodeSpec{
		Name:  name,
		Kinds: kinds,
		Deps:  deps,
		Fn: func(_ context.Context, _ Values) (any, error) {
			return val, nil
		},
	}
}

func TestResolver_FirstMatchWins(t *testing.T) {
	r := NewResolver(
		Matcher{Kind: KindPathList, Match: func(s any) bool { _, ok := s.([]string); return ok }},
		Matcher{Kind: KindDirectory, Match: func(s any) bool { _, ok := s.(string); return ok }},
	)

	kind, err := r.Resolve([]string{"a.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindPathList {
		t.Fatalf("expected path_list, got %s", kind)
	}

	kind, err = r.Resolve("/data/docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindDirectory {
		t.Fatalf("expected directory, got %s", kind)
	}
}

func TestResolver_Unsupported(t *testing.T) {
	r := NewResolver(
		Matcher{Kind: KindPathList, Match: func(s any) bool { _, ok := s.([]string); return ok }},
	)
	_, err := r.Resolve(42)
	if !errors.IsCode(err, errors.ErrCodeUnsupportedSource) {
		t.Fatalf("expected UNSUPPORTED_SOURCE, got %v", err)
	}
}

func TestBuild_Valid(t *testing.T) {
	g, err := NewBuilder().
		Add(
			constNode("a", nil, 1),
			constNode("b", nil, 2, "a"),
			constNode("c", []SourceKind{KindPathList}, 3, "b"),
		).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil {
		t.Fatal("expected graph")
	}
}

func TestBuild_Cycle(t *testing.T) {
	_, err := NewBuilder().
		Add(
			constNode("a", nil, 1, "b"),
			constNode("b", nil, 2, "a"),
		).
		Build()
	if !errors.IsCode(err, errors.ErrCodeGraphCycle) {
		t.Fatalf("expected GRAPH_CYCLE, got %v", err)
	}
}

func TestBuild_SelfCycle(t *testing.T) {
	_, err := NewBuilder().
		Add(constNode("a", nil, 1, "a")).
		Build()
	if !errors.IsCode(err, errors.ErrCodeGraphCycle) {
		t.Fatalf("expected GRAPH_CYCLE, got %v", err)
	}
}

// A cycle that only exists for one kind must still fail the build.
func TestBuild_CycleRestrictedToOneKind(t *testing.T) {
	_, err := NewBuilder().
		Add(
			constNode("a", []SourceKind{KindDatabase}, 1, "b"),
			constNode("b", []SourceKind{KindDatabase}, 2, "a"),
			constNode("c", []SourceKind{KindPathList}, 3),
		).
		Build()
	if !errors.IsCode(err, errors.ErrCodeGraphCycle) {
		t.Fatalf("expected GRAPH_CYCLE, got %v", err)
	}
}

// Two specs with the same name on disjoint kinds are legal; the same
// name within one kind is not.
func TestBuild_DuplicatePerKind(t *testing.T) {
	g, err := NewBuilder().
		Add(
			constNode("bag", []SourceKind{KindPathList}, "from paths"),
			constNode("bag", []SourceKind{KindDatabase}, "from table"),
		).
		Build()
	if err != nil {
		t.Fatalf("disjoint kinds must build: %v", err)
	}
	if g == nil {
		t.Fatal("expected graph")
	}

	_, err = NewBuilder().
		Add(
			constNode("bag", []SourceKind{KindPathList}, 1),
			constNode("bag", nil, 2), // wildcard collides with path_list
		).
		Build()
	if !errors.IsCode(err, errors.ErrCodeDuplicateNode) {
		t.Fatalf("expected DUPLICATE_NODE, got %v", err)
	}
}

func TestBuild_AliasCollidesWithNode(t *testing.T) {
	_, err := NewBuilder().
		Add(constNode("info", nil, map[string]any{"root": "/"})).
		AddAlias(&Alias{Name: "info", Target: "info", Key: "root"}).
		Build()
	if !errors.IsCode(err, errors.ErrCodeDuplicateNode) {
		t.Fatalf("expected DUPLICATE_NODE, got %v", err)
	}
}

func TestSubgraph_KindSelection(t *testing.T) {
	g, err := NewBuilder().
		Add(
			constNode("everywhere", []SourceKind{KindAny}, 1),
			constNode("paths_only", []SourceKind{KindPathList}, 2),
			constNode("db_only", []SourceKind{KindDatabase}, 3),
		).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := g.Subgraph(KindPathList)
	if _, ok := sub["everywhere"]; !ok {
		t.Fatal("wildcard spec must be in every subgraph")
	}
	if _, ok := sub["paths_only"]; !ok {
		t.Fatal("kind-restricted spec missing from its subgraph")
	}
	if _, ok := sub["db_only"]; ok {
		t.Fatal("database-only spec leaked into path_list subgraph")
	}
}

func TestNames_IncludesAliases(t *testing.T) {
	g, err := NewBuilder().
		Add(constNode("file_info", []SourceKind{KindPathList}, map[string]any{"root": "/data"})).
		AddAlias(&Alias{Name: "root_path", Target: "file_info", Key: "root", Kinds: []SourceKind{KindPathList}}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, name := range g.Names(KindPathList) {
		if name == "root_path" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected root_path among path_list names")
	}
	for _, name := range g.Names(KindDatabase) {
		if name == "root_path" {
			t.Fatal("root_path must not be reachable for database kind")
		}
	}
}
