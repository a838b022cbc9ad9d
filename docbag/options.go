package docbag

import (
	"github.com/kbukum/docpipe/aggregate"
	"github.com/kbukum/docpipe/bag"
	"github.com/kbukum/docpipe/config"
	"github.com/kbukum/docpipe/dbload"
	"github.com/kbukum/docpipe/document"
	"github.com/kbukum/docpipe/logger"
	"github.com/kbukum/docpipe/observability"
)

// Options configure a Pipeline.
type Options struct {
	// Source determines the pipeline's kind: []string (file paths),
	// string (directory), *bag.Bag (prepared collection), or a
	// dbload.Descriptor (database table).
	Source any

	// DocConfiguration is forwarded verbatim to every constructed
	// document. Keys present in an element's payload shadow it.
	DocConfiguration map[string]any

	// ForgivingExtracts turns per-element failures into error markers
	// instead of aborting realizations.
	ForgivingExtracts bool

	// Verbosity raises the default log level when no Logger is given.
	Verbosity int

	// MaxWorkers bounds parallel partition realization.
	MaxWorkers int

	// PartitionSize is the element count per partition for sources
	// that arrive unpartitioned.
	PartitionSize int

	// Extractor runs on each path-carrying element. Optional; without
	// one, payloads pass through as-is.
	Extractor document.Extractor

	// Loader performs database table loads. Required for database
	// sources, ignored otherwise.
	Loader *dbload.Loader

	// Embedder and VectorStore back the vectorizer nodes. Optional.
	Embedder    aggregate.Embedder
	VectorStore aggregate.VectorStore

	// Metrics, when set, records every node computation.
	Metrics *observability.Metrics

	Logger *logger.Logger
}

func (o *Options) applyDefaults() {
	if o.PartitionSize <= 0 {
		o.PartitionSize = bag.DefaultPartitionSize
	}
	if o.Logger == nil {
		if o.Verbosity > 0 {
			cfg := &logger.Config{Level: logger.FromVerbosity(o.Verbosity)}
			cfg.ApplyDefaults()
			o.Logger = logger.New(cfg, "docpipe")
		} else {
			o.Logger = logger.Nop()
		}
	}
}

func (o *Options) bagConfig() bag.Config {
	return bag.Config{
		PartitionSize: o.PartitionSize,
		Workers:       o.MaxWorkers,
		Forgiving:     o.ForgivingExtracts,
		Logger:        o.Logger,
	}
}

// OptionsFromConfig maps a loaded PipelineConfig onto Options for the
// given source. Database settings become the source descriptor when the
// source is nil and a connection string is configured.
func OptionsFromConfig(cfg *config.PipelineConfig, source any) Options {
	opts := Options{
		Source:            source,
		DocConfiguration:  cfg.Document,
		ForgivingExtracts: cfg.Engine.ForgivingExtracts,
		Verbosity:         cfg.Engine.Verbosity,
		MaxWorkers:        cfg.Engine.Workers,
		PartitionSize:     cfg.Engine.PartitionSize,
	}
	if source == nil && cfg.Database.ConnectionString != "" {
		opts.Source = dbload.Descriptor{
			ConnectionString: cfg.Database.ConnectionString,
			SQL:              cfg.Database.SQL,
			IndexColumn:      cfg.Database.IndexColumn,
			BytesPerChunk:    cfg.Database.BytesPerChunk,
		}
	}
	return opts
}
