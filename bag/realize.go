package bag

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/docpipe/logger"
	"github.com/kbukum/docpipe/observability"
)

// Take realizes and returns the first n elements. Production is
// pull-based: no element function beyond position n runs.
func (b *Bag) Take(ctx context.Context, n int) ([]Element, error) {
	if n <= 0 {
		return nil, nil
	}

	out := make([]Element, 0, n)
	for _, part := range b.parts {
		iter := part(ctx)
		for len(out) < n {
			e, ok, err := iter.Next(ctx)
			if err != nil {
				_ = iter.Close()
				return nil, err
			}
			if !ok {
				break
			}
			out = append(out, e)
		}
		_ = iter.Close()
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// Compute realizes the entire collection into a concrete ordered
// sequence. Partitions are realized concurrently (bounded by
// Config.Workers) and concatenated in partition order, so the result
// order matches the source order. In non-forgiving mode the first
// failure aborts the realization and no partial results are returned.
func (b *Bag) Compute(ctx context.Context) ([]Element, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBagRealization)
	defer span.End()
	observability.SetSpanAttribute(ctx, "partitions", len(b.parts))

	start := time.Now()
	chunks := make([][]Element, len(b.parts))

	g, gctx := errgroup.WithContext(ctx)
	if b.cfg.Workers > 0 {
		g.SetLimit(b.cfg.Workers)
	}

	for i, part := range b.parts {
		i, part := i, part
		g.Go(func() error {
			iter := part(gctx)
			defer iter.Close()
			var chunk []Element
			for {
				e, ok, err := iter.Next(gctx)
				if err != nil {
					return err
				}
				if !ok {
					chunks[i] = chunk
					return nil
				}
				chunk = append(chunk, e)
			}
		})
	}

	if err := g.Wait(); err != nil {
		observability.SetSpanError(ctx, err)
		b.cfg.log().Error("realization aborted", logger.ErrorFields("compute", err))
		return nil, err
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]Element, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}

	b.cfg.log().Debug("bag realized", logger.Fields(
		logger.FieldOperation, "compute",
		"elements", total,
		logger.FieldPartition, len(b.parts),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return out, nil
}

// ForEach realizes the collection sequentially, calling fn per element.
// Used by streaming consumers (vector upserts) that need no slice.
func (b *Bag) ForEach(ctx context.Context, fn func(ctx context.Context, e Element) error) error {
	for _, part := range b.parts {
		iter := part(ctx)
		for {
			e, ok, err := iter.Next(ctx)
			if err != nil {
				_ = iter.Close()
				return err
			}
			if !ok {
				break
			}
			if err := fn(ctx, e); err != nil {
				_ = iter.Close()
				return err
			}
		}
		_ = iter.Close()
	}
	return nil
}
