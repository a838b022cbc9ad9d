// Package bag provides the ordered, partitioned, lazily-produced
// collection underlying docpipe batch processing.
//
// A Bag is a sequence of Elements cut into partitions. Nothing is
// produced until a realization call (Take or Compute) pulls elements
// through the chain; Transform and Explode stack lazily on top of the
// source partitions. Ordering is preserved end to end: Transform keeps
// positions, Explode keeps source-element granularity (all outputs of
// element i precede all outputs of element i+1).
//
// Per-element failure containment is controlled by Config.Forgiving:
// when set, a failing element function yields a single ErrorMarker
// element instead of aborting the batch; when unset, the first failure
// aborts the whole realization and no partial results are returned.
package bag

import (
	"context"

	"github.com/kbukum/docpipe/logger"
)

// Iterator provides pull-based sequential access to a partition's elements.
type Iterator interface {
	// Next returns the next element. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (Element, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Partition lazily produces one ordered slice of the collection.
type Partition func(ctx context.Context) Iterator

// Config controls partitioning, parallelism, and failure containment.
type Config struct {
	// PartitionSize is the element count per partition when slicing
	// concrete sources. Zero means DefaultPartitionSize.
	PartitionSize int
	// Workers bounds concurrent partition realization in Compute.
	// Zero means one goroutine per partition.
	Workers int
	// Forgiving turns per-element failures into ErrorMarker elements.
	Forgiving bool
	// Logger receives realization diagnostics. Nil means none.
	Logger *logger.Logger
}

// DefaultPartitionSize is used when Config.PartitionSize is zero.
const DefaultPartitionSize = 64

func (c Config) partitionSize() int {
	if c.PartitionSize <= 0 {
		return DefaultPartitionSize
	}
	return c.PartitionSize
}

func (c Config) log() *logger.Logger {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger.WithComponent("bag")
}

// Bag is an ordered, partitioned, lazily-produced sequence of Elements.
type Bag struct {
	parts []Partition
	cfg   Config
}

// New creates a bag over pre-built lazy partitions.
func New(cfg Config, parts ...Partition) *Bag {
	return &Bag{parts: parts, cfg: cfg}
}

// FromElements cuts concrete elements into partitions of cfg.PartitionSize.
func FromElements(cfg Config, elements []Element) *Bag {
	size := cfg.partitionSize()
	var parts []Partition
	for start := 0; start < len(elements); start += size {
		end := min(start+size, len(elements))
		chunk := elements[start:end]
		parts = append(parts, func(_ context.Context) Iterator {
			return &sliceIter{elements: chunk}
		})
	}
	return &Bag{parts: parts, cfg: cfg}
}

// FromPayloads builds root elements from payloads in order and
// partitions them.
func FromPayloads(cfg Config, payloads []map[string]any) *Bag {
	elements := make([]Element, len(payloads))
	for i, p := range payloads {
		elements[i] = NewElement(i, p)
	}
	return FromElements(cfg, elements)
}

// FromPartitions wraps already-partitioned concrete elements, keeping
// the given cuts. Used by table loads that chunk by byte size.
func FromPartitions(cfg Config, partitions [][]Element) *Bag {
	parts := make([]Partition, 0, len(partitions))
	for _, chunk := range partitions {
		chunk := chunk
		parts = append(parts, func(_ context.Context) Iterator {
			return &sliceIter{elements: chunk}
		})
	}
	return &Bag{parts: parts, cfg: cfg}
}

// Partitions returns the partition count.
func (b *Bag) Partitions() int { return len(b.parts) }

// Config returns the bag's configuration snapshot.
func (b *Bag) Config() Config { return b.cfg }

// WithConfig returns a bag over the same partitions with new settings.
func (b *Bag) WithConfig(cfg Config) *Bag {
	return &Bag{parts: b.parts, cfg: cfg}
}

// --- internal iterators ---

type sliceIter struct {
	elements []Element
	index    int
}

func (it *sliceIter) Next(_ context.Context) (Element, bool, error) {
	if it.index >= len(it.elements) {
		return Element{}, false, nil
	}
	e := it.elements[it.index]
	it.index++
	return e, true, nil
}

func (it *sliceIter) Close() error { return nil }
