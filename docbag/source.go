package docbag

import (
	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/dbload"
	"github.com/kbukum/docpipe/flow"
)

// Descriptor identifies a database table source.
type Descriptor = dbload.Descriptor

// resolver classifies source values. Order matters: the first matching
// kind wins.
var resolver = flow.NewResolver(
	flow.Matcher{Kind: flow.KindCollection, Match: func(v any) bool {
		_, ok := v.(*bag.Bag)
		return ok
	}},
	flow.Matcher{Kind: flow.KindDatabase, Match: func(v any) bool {
		switch v.(type) {
		case dbload.Descriptor, *dbload.Descriptor:
			return true
		}
		return false
	}},
	flow.Matcher{Kind: flow.KindPathList, Match: func(v any) bool {
		_, ok := v.([]string)
		return ok
	}},
	flow.Matcher{Kind: flow.KindDirectory, Match: func(v any) bool {
		_, ok := v.(string)
		return ok
	}},
)

// ResolveKind classifies a source value without building a pipeline.
func ResolveKind(source any) (flow.SourceKind, error) {
	return resolver.Resolve(source)
}

func descriptorOf(source any) (dbload.Descriptor, bool) {
	switch d := source.(type) {
	case dbload.Descriptor:
		return d, true
	case *dbload.Descriptor:
		return *d, true
	}
	return dbload.Descriptor{}, false
}
