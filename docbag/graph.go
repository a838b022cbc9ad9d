package docbag

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kbukum/docpipe/aggregate"
	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/dbload"
	"github.com/kbukum/docpipe/document"
	"github.com/kbukum/docpipe/errors"
	"github.com/kbukum/docpipe/flow"
)

// Node names and aliases exposed by the document-bag graph.
const (
	NodeSource        = "source"
	NodeConfiguration = "configuration"
	NodePaths         = "paths"
	NodeFileInfo      = "file_info"
	NodeBag           = "bag"
	NodeFactory       = "document_factory"
	NodeDocs          = "docs"
	NodeStats         = "stats"
	NodeDataframe     = "dataframe"
	NodeViews         = "views"
	NodeTake          = "take"
	NodeCompute       = "compute"
	NodeVectorizer    = "vectorizer"
	NodeAddToIndex    = "add_to_vector_index"
	NodeSQLTable      = "sql_table"

	AliasRootPath  = "root_path"
	AliasDataframe = "d"
	AliasElements  = "e"

	nodeBagConfig   = "bag_config"
	nodeExtractor   = "extractor"
	nodeLoader      = "db_loader"
	nodeEmbedder    = "embedder"
	nodeVectorStore = "vector_store"
)

// ConfigVectorProperty selects the document property fed to the
// vectorizer. Defaults to full_text when absent.
const ConfigVectorProperty = "vector_property"

// TakeFunc realizes at most n elements of the instance's document bag.
type TakeFunc func(ctx context.Context, n int) ([]bag.Element, error)

// ComputeFunc realizes the instance's document bag completely.
type ComputeFunc func(ctx context.Context) ([]bag.Element, error)

// IndexFunc streams the instance's documents into its vector store and
// returns the number of entries written.
type IndexFunc func(ctx context.Context) (int, error)

var pathKinds = []flow.SourceKind{flow.KindPathList, flow.KindDirectory}

// sharedGraph is built once and shared read-only by every Pipeline.
var sharedGraph = mustBuildGraph()

func mustBuildGraph() *flow.Graph {
	g, err := buildGraph()
	if err != nil {
		panic(err)
	}
	return g
}

func buildGraph() (*flow.Graph, error) {
	b := flow.NewBuilder()

	// Leaves, populated per instance through overrides.
	b.Add(
		&flow.NodeSpec{Name: NodeSource},
		&flow.NodeSpec{Name: NodeConfiguration, Default: map[string]any{}},
		&flow.NodeSpec{Name: nodeBagConfig, Default: bag.Config{}},
		&flow.NodeSpec{Name: nodeExtractor},
		&flow.NodeSpec{Name: nodeEmbedder},
		&flow.NodeSpec{Name: nodeVectorStore},
		&flow.NodeSpec{Name: nodeLoader, Kinds: []flow.SourceKind{flow.KindDatabase}},
	)

	b.Add(
		&flow.NodeSpec{
			Name:  NodePaths,
			Kinds: []flow.SourceKind{flow.KindPathList},
			Deps:  []string{NodeSource},
			Fn:    pathListPaths,
		},
		&flow.NodeSpec{
			Name:  NodePaths,
			Kinds: []flow.SourceKind{flow.KindDirectory},
			Deps:  []string{NodeSource},
			Fn:    directoryPaths,
		},
		&flow.NodeSpec{
			Name:  NodeFileInfo,
			Kinds: []flow.SourceKind{flow.KindPathList},
			Deps:  []string{NodePaths},
			Fn:    pathListFileInfo,
		},
		&flow.NodeSpec{
			Name:  NodeFileInfo,
			Kinds: []flow.SourceKind{flow.KindDirectory},
			Deps:  []string{NodeSource, NodePaths},
			Fn:    directoryFileInfo,
		},
	)

	b.Add(
		&flow.NodeSpec{
			Name:  NodeBag,
			Kinds: pathKinds,
			Deps:  []string{NodePaths, NodeFileInfo, nodeBagConfig},
			Fn:    pathBag,
		},
		&flow.NodeSpec{
			Name:  NodeBag,
			Kinds: []flow.SourceKind{flow.KindCollection},
			Deps:  []string{NodeSource, nodeBagConfig},
			Fn:    collectionBag,
		},
		&flow.NodeSpec{
			Name:  NodeBag,
			Kinds: []flow.SourceKind{flow.KindDatabase},
			Deps:  []string{NodeSource, nodeLoader, nodeBagConfig},
			Fn:    databaseBag,
		},
		&flow.NodeSpec{
			Name:  NodeSQLTable,
			Kinds: []flow.SourceKind{flow.KindDatabase},
			Deps:  []string{NodeBag},
			Fn:    sqlTable,
		},
	)

	b.Add(
		&flow.NodeSpec{
			Name: NodeFactory,
			Deps: []string{NodeConfiguration, nodeExtractor},
			Fn:   documentFactory,
		},
		&flow.NodeSpec{
			Name: NodeDocs,
			Deps: []string{NodeBag, NodeFactory},
			Fn:   docsBag,
		},
		&flow.NodeSpec{
			Name: NodeStats,
			Deps: []string{NodeDocs},
			Fn:   statsFrame,
		},
		&flow.NodeSpec{
			Name: NodeDataframe,
			Deps: []string{NodeDocs},
			Fn:   dataframe,
		},
		&flow.NodeSpec{
			Name: NodeViews,
			Deps: []string{NodeDocs, nodeBagConfig},
			Fn:   views,
		},
		&flow.NodeSpec{
			Name: NodeTake,
			Deps: []string{NodeDocs},
			Fn:   takeFunc,
		},
		&flow.NodeSpec{
			Name: NodeCompute,
			Deps: []string{NodeDocs},
			Fn:   computeFunc,
		},
		&flow.NodeSpec{
			Name: NodeVectorizer,
			Deps: []string{nodeEmbedder, NodeConfiguration},
			Fn:   vectorizer,
		},
		&flow.NodeSpec{
			Name: NodeAddToIndex,
			Deps: []string{NodeVectorizer, NodeDocs, nodeVectorStore},
			Fn:   addToIndex,
		},
	)

	b.AddAlias(
		&flow.Alias{Name: AliasRootPath, Target: NodeFileInfo, Key: "root", Kinds: pathKinds},
		&flow.Alias{Name: AliasDataframe, Target: NodeViews, Key: "dataframe"},
		&flow.Alias{Name: AliasElements, Target: NodeViews, Key: "elements"},
	)

	return b.Build()
}

func pathListPaths(_ context.Context, deps flow.Values) (any, error) {
	src, ok := deps[NodeSource].([]string)
	if !ok {
		return nil, errors.Internal("path list source is not []string")
	}
	paths := make([]string, len(src))
	copy(paths, src)
	return paths, nil
}

func directoryPaths(_ context.Context, deps flow.Values) (any, error) {
	dir, ok := deps[NodeSource].(string)
	if !ok {
		return nil, errors.Internal("directory source is not a string")
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.InvalidInput(NodeSource, "directory walk failed").WithCause(err)
	}
	return paths, nil
}

func pathListFileInfo(_ context.Context, deps flow.Values) (any, error) {
	paths, err := depPaths(deps)
	if err != nil {
		return nil, err
	}
	return flow.Values{"root": commonRoot(paths), "count": len(paths)}, nil
}

func directoryFileInfo(_ context.Context, deps flow.Values) (any, error) {
	paths, err := depPaths(deps)
	if err != nil {
		return nil, err
	}
	root, _ := deps[NodeSource].(string)
	return flow.Values{"root": root, "count": len(paths)}, nil
}

func pathBag(_ context.Context, deps flow.Values) (any, error) {
	paths, err := depPaths(deps)
	if err != nil {
		return nil, err
	}
	info, _ := deps[NodeFileInfo].(flow.Values)
	root, _ := info["root"].(string)
	cfg := depBagConfig(deps)

	payloads := make([]map[string]any, len(paths))
	for i, p := range paths {
		payloads[i] = map[string]any{
			document.KeyPath:   p,
			document.KeySource: root,
		}
	}
	return bag.FromPayloads(cfg, payloads), nil
}

func collectionBag(_ context.Context, deps flow.Values) (any, error) {
	src, ok := deps[NodeSource].(*bag.Bag)
	if !ok {
		return nil, errors.Internal("collection source is not a *bag.Bag")
	}
	return src.WithConfig(depBagConfig(deps)), nil
}

func databaseBag(ctx context.Context, deps flow.Values) (any, error) {
	desc, ok := descriptorOf(deps[NodeSource])
	if !ok {
		return nil, errors.Internal("database source is not a descriptor")
	}
	loader, ok := deps[nodeLoader].(*dbload.Loader)
	if !ok || loader == nil {
		return nil, errors.MissingField("loader")
	}
	return loader.Load(ctx, desc, depBagConfig(deps))
}

func sqlTable(ctx context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeBag)
	if err != nil {
		return nil, err
	}
	return aggregate.Dataframe(ctx, b)
}

func documentFactory(_ context.Context, deps flow.Values) (any, error) {
	cfg, _ := deps[NodeConfiguration].(map[string]any)
	extractor, _ := deps[nodeExtractor].(document.Extractor)
	return document.NewFactory(cfg, extractor), nil
}

func docsBag(_ context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeBag)
	if err != nil {
		return nil, err
	}
	factory, ok := deps[NodeFactory].(*document.Factory)
	if !ok {
		return nil, errors.Internal("document factory missing")
	}
	return b.Transform("extract", factory.ExtractTransform()), nil
}

func statsFrame(ctx context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	return aggregate.Stats(ctx, b)
}

func dataframe(ctx context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	return aggregate.Dataframe(ctx, b)
}

func views(ctx context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	elements, err := b.Compute(ctx)
	if err != nil {
		return nil, err
	}
	frame, err := aggregate.Dataframe(ctx, bag.FromElements(depBagConfig(deps), elements))
	if err != nil {
		return nil, err
	}
	return flow.Values{"dataframe": frame, "elements": elements}, nil
}

func takeFunc(_ context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	return TakeFunc(b.Take), nil
}

func computeFunc(_ context.Context, deps flow.Values) (any, error) {
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	return ComputeFunc(b.Compute), nil
}

func vectorizer(_ context.Context, deps flow.Values) (any, error) {
	embedder, ok := deps[nodeEmbedder].(aggregate.Embedder)
	if !ok || embedder == nil {
		return nil, errors.MissingField("embedder")
	}
	property := ""
	if cfg, ok := deps[NodeConfiguration].(map[string]any); ok {
		property, _ = cfg[ConfigVectorProperty].(string)
	}
	return aggregate.NewVectorizer(embedder, property), nil
}

func addToIndex(_ context.Context, deps flow.Values) (any, error) {
	vec, ok := deps[NodeVectorizer].(*aggregate.Vectorizer)
	if !ok {
		return nil, errors.Internal("vectorizer missing")
	}
	store, ok := deps[nodeVectorStore].(aggregate.VectorStore)
	if !ok || store == nil {
		return nil, errors.MissingField("vector store")
	}
	b, err := depBag(deps, NodeDocs)
	if err != nil {
		return nil, err
	}
	return IndexFunc(func(ctx context.Context) (int, error) {
		return vec.AddToIndex(ctx, b, store)
	}), nil
}

func depPaths(deps flow.Values) ([]string, error) {
	paths, ok := deps[NodePaths].([]string)
	if !ok {
		return nil, errors.Internal("paths dependency has the wrong shape")
	}
	return paths, nil
}

func depBag(deps flow.Values, name string) (*bag.Bag, error) {
	b, ok := deps[name].(*bag.Bag)
	if !ok {
		return nil, errors.Internal(name + " dependency is not a bag")
	}
	return b, nil
}

func depBagConfig(deps flow.Values) bag.Config {
	cfg, _ := deps[nodeBagConfig].(bag.Config)
	return cfg
}

// commonRoot finds the deepest directory containing every path.
func commonRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	root := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for root != "" && root != "." && !within(dir, root) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root
}

func within(dir, root string) bool {
	if root == string(filepath.Separator) {
		return strings.HasPrefix(dir, root)
	}
	return dir == root || strings.HasPrefix(dir, root+string(filepath.Separator))
}
