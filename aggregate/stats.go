package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/docpipe/bag"
)

// Stats columns.
const (
	ColIndex   = "index"
	ColStatus  = "status"
	ColError   = "error"
	ColNode    = "node"
	ColSize    = "size"
	ColElapsed = "elapsed_ms"
)

// Stats realizes the bag and derives one summary row per element, in
// source order: success/error flag, originating node for failures, and
// size/timing passthrough when the payload carries them.
func Stats(ctx context.Context, b *bag.Bag) (*Frame, error) {
	elements, err := b.Compute(ctx)
	if err != nil {
		return nil, err
	}

	frame := NewFrame(ColIndex, ColStatus, ColError, ColNode, ColSize, ColElapsed)
	for _, e := range elements {
		if marker, ok := bag.MarkerOf(e); ok {
			frame.Append(pathString(e.Path), "error", marker.Message, marker.Node, nil, nil)
			continue
		}
		frame.Append(pathString(e.Path), "ok", nil, nil, e.Payload[ColSize], e.Payload["elapsed"])
	}
	return frame, nil
}

// Dataframe realizes the bag into a frame with one column per payload
// key seen across all elements, sorted for a stable layout, rows in
// source order. Marker elements produce all-nil rows so positions stay
// aligned.
func Dataframe(ctx context.Context, b *bag.Bag) (*Frame, error) {
	elements, err := b.Compute(ctx)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return NewFrame(), nil
	}

	seen := make(map[string]struct{})
	var columns []string
	for _, e := range elements {
		if bag.IsMarker(e) {
			continue
		}
		for k := range e.Payload {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	frame := NewFrame(columns...)
	for _, e := range elements {
		row := make([]any, len(columns))
		if !bag.IsMarker(e) {
			for i, c := range columns {
				row[i] = e.Payload[c]
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

// GetDicts produces a parallel lazy bag holding only the named property
// per element. Elements missing the property yield an empty payload.
func GetDicts(b *bag.Bag, property string) *bag.Bag {
	return b.Transform("get_dicts:"+property, func(_ context.Context, e bag.Element) (map[string]any, error) {
		if v, ok := e.Property(property); ok {
			return map[string]any{property: v}, nil
		}
		return map[string]any{}, nil
	})
}

func pathString(path []int) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += fmt.Sprintf("%d", p)
	}
	return s
}
