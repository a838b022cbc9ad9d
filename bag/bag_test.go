package bag

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/kbukum/docpipe/errors"
)

func payloads(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		out[i] = map[string]any{"value": i}
	}
	return out
}

func values(t *testing.T, elements []Element) []int {
	t.Helper()
	out := make([]int, len(elements))
	for i, e := range elements {
		v, ok := e.Property("value")
		if !ok {
			t.Fatalf("element %d has no value: %v", i, e.Payload)
		}
		out[i] = v.(int)
	}
	return out
}

func TestFromPayloads_Partitioning(t *testing.T) {
	b := FromPayloads(Config{PartitionSize: 2}, payloads(5))
	if b.Partitions() != 3 {
		t.Fatalf("expected 3 partitions for 5 elements of size 2, got %d", b.Partitions())
	}
}

func TestCompute_OrderPreserved(t *testing.T) {
	b := FromPayloads(Config{PartitionSize: 2, Workers: 4}, payloads(7))
	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(values(t, out), want) {
		t.Fatalf("expected %v, got %v", want, values(t, out))
	}
}

func TestTransform_OrderAndImmutability(t *testing.T) {
	src := payloads(3)
	b := FromPayloads(Config{PartitionSize: 10}, src)
	doubled := b.Transform("double", func(_ context.Context, e Element) (map[string]any, error) {
		return map[string]any{"value": e.Payload["value"].(int) * 2}, nil
	})

	out, err := doubled.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := values(t, out); !reflect.DeepEqual(got, []int{0, 2, 4}) {
		t.Fatalf("expected doubled values, got %v", got)
	}
	// source payloads untouched
	for i, p := range src {
		if p["value"] != i {
			t.Fatalf("source payload %d mutated: %v", i, p)
		}
	}
}

func TestTransform_Lazy(t *testing.T) {
	var calls int32
	b := FromPayloads(Config{}, payloads(3)).
		Transform("count", func(_ context.Context, e Element) (map[string]any, error) {
			atomic.AddInt32(&calls, 1)
			return e.Payload, nil
		})

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("transform must not run before realization")
	}
	if _, err := b.Compute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls after compute, got %d", calls)
	}
}

func TestExplode_Ordering(t *testing.T) {
	// A -> [a1, a2], B -> [b1]: flattened output must be [a1, a2, b1].
	b := FromPayloads(Config{}, []map[string]any{
		{"name": "A", "n": 2},
		{"name": "B", "n": 1},
	})
	exploded := b.Explode("split", func(_ context.Context, e Element) ([]map[string]any, error) {
		n := e.Payload["n"].(int)
		var out []map[string]any
		for i := 0; i < n; i++ {
			out = append(out, map[string]any{"id": fmt.Sprintf("%s%d", e.Payload["name"], i+1)})
		}
		return out, nil
	})

	out, err := exploded.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, e := range out {
		ids = append(ids, e.Payload["id"].(string))
	}
	want := []string{"A1", "A2", "B1"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestExplode_ZeroOutputs(t *testing.T) {
	b := FromPayloads(Config{}, payloads(3)).
		Explode("drop_odd", func(_ context.Context, e Element) ([]map[string]any, error) {
			if e.Payload["value"].(int)%2 == 1 {
				return nil, nil
			}
			return []map[string]any{e.Payload}, nil
		})

	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := values(t, out); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("expected [0 2] with no placeholders, got %v", got)
	}
}

func TestExplode_ProvenancePath(t *testing.T) {
	b := FromPayloads(Config{}, payloads(2)).
		Explode("spread", func(_ context.Context, e Element) ([]map[string]any, error) {
			return []map[string]any{{"v": 1}, {"v": 2}}, nil
		})

	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPaths := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for i, e := range out {
		if !reflect.DeepEqual(e.Path, wantPaths[i]) {
			t.Fatalf("element %d: expected path %v, got %v", i, wantPaths[i], e.Path)
		}
	}
}

func TestTake_BoundsSideEffects(t *testing.T) {
	var calls int32
	b := FromPayloads(Config{PartitionSize: 100}, payloads(100)).
		Transform("count", func(_ context.Context, e Element) (map[string]any, error) {
			atomic.AddInt32(&calls, 1)
			return e.Payload, nil
		})

	out, err := b.Take(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(out))
	}
	if got := atomic.LoadInt32(&calls); got > 5 {
		t.Fatalf("take(5) must not run more than 5 element functions, ran %d", got)
	}
}

func TestTake_MoreThanAvailable(t *testing.T) {
	b := FromPayloads(Config{PartitionSize: 2}, payloads(3))
	out, err := b.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected all 3 elements, got %d", len(out))
	}
}

func TestForgiving_Containment(t *testing.T) {
	fail2 := func(_ context.Context, e Element) (map[string]any, error) {
		if e.Payload["value"].(int) == 1 {
			return nil, fmt.Errorf("parse failed")
		}
		return e.Payload, nil
	}

	forgiving := FromPayloads(Config{Forgiving: true}, payloads(3)).Transform("extract", fail2)
	out, err := forgiving.Compute(context.Background())
	if err != nil {
		t.Fatalf("forgiving mode must not fail: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("forgiving mode must keep batch length, got %d", len(out))
	}
	marker, ok := MarkerOf(out[1])
	if !ok {
		t.Fatalf("element 2 must carry a marker, got %v", out[1].Payload)
	}
	if marker.Node != "extract" {
		t.Fatalf("marker must name the originating node, got %q", marker.Node)
	}
	if IsMarker(out[0]) || IsMarker(out[2]) {
		t.Fatal("sibling elements must not be affected")
	}
}

func TestStrict_AbortsWithoutPartialResults(t *testing.T) {
	strict := FromPayloads(Config{}, payloads(3)).
		Transform("extract", func(_ context.Context, e Element) (map[string]any, error) {
			if e.Payload["value"].(int) == 1 {
				return nil, fmt.Errorf("parse failed")
			}
			return e.Payload, nil
		})

	out, err := strict.Compute(context.Background())
	if !errors.IsCode(err, errors.ErrCodeElementFailed) {
		t.Fatalf("expected ELEMENT_FAILED, got %v", err)
	}
	if out != nil {
		t.Fatalf("strict mode must return no partial results, got %d elements", len(out))
	}
}

func TestForgiving_MarkerPassesThroughLaterStages(t *testing.T) {
	var downstream int32
	b := FromPayloads(Config{Forgiving: true}, payloads(2)).
		Transform("fail_first", func(_ context.Context, e Element) (map[string]any, error) {
			if e.Payload["value"].(int) == 0 {
				return nil, fmt.Errorf("broken element")
			}
			return e.Payload, nil
		}).
		Transform("downstream", func(_ context.Context, e Element) (map[string]any, error) {
			atomic.AddInt32(&downstream, 1)
			return e.Payload, nil
		})

	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(out))
	}
	if !IsMarker(out[0]) {
		t.Fatal("marker must survive later stages untouched")
	}
	if atomic.LoadInt32(&downstream) != 1 {
		t.Fatalf("downstream must skip marker elements, ran %d times", downstream)
	}
}

func TestForgiving_ExplodeMarkerReplacesElement(t *testing.T) {
	b := FromPayloads(Config{Forgiving: true}, payloads(3)).
		Explode("burst", func(_ context.Context, e Element) ([]map[string]any, error) {
			if e.Payload["value"].(int) == 1 {
				return nil, fmt.Errorf("cannot split")
			}
			return []map[string]any{e.Payload}, nil
		})

	out, err := b.Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outputs (2 normal + 1 marker), got %d", len(out))
	}
	if !IsMarker(out[1]) {
		t.Fatal("failed explode must yield exactly one marker element")
	}
}

func TestForEach(t *testing.T) {
	var seen []int
	b := FromPayloads(Config{PartitionSize: 2}, payloads(4))
	err := b.ForEach(context.Background(), func(_ context.Context, e Element) error {
		seen = append(seen, e.Payload["value"].(int))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(seen, []int{0, 1, 2, 3}) {
		t.Fatalf("expected in-order visit, got %v", seen)
	}
}

func TestElement_DeriveKeepsPath(t *testing.T) {
	e := NewElement(4, map[string]any{"a": 1})
	d := e.Derive(map[string]any{"b": 2})
	if !reflect.DeepEqual(d.Path, []int{4}) {
		t.Fatalf("derive must keep provenance, got %v", d.Path)
	}
	if _, ok := e.Property("b"); ok {
		t.Fatal("derive must not touch the source element")
	}
}
