package bag

// MarkerKey is the payload key carrying an ErrorMarker in forgiving mode.
const MarkerKey = "error_marker"

// Element is one member of a lazy collection: an immutable payload of
// extracted properties plus a provenance path. The path is the element's
// position in its source, extended by the output index on each explode,
// so any derived element can be traced back to its origin.
type Element struct {
	Payload map[string]any
	Path    []int
}

// NewElement creates a root element at position index.
func NewElement(index int, payload map[string]any) Element {
	return Element{Payload: payload, Path: []int{index}}
}

// Derive produces a new element with the given payload and the same
// provenance path. The receiver is not mutated.
func (e Element) Derive(payload map[string]any) Element {
	return Element{Payload: payload, Path: e.Path}
}

// Child produces the i-th element exploded out of e. Its path is the
// parent path extended with i.
func (e Element) Child(i int, payload map[string]any) Element {
	path := make([]int, len(e.Path)+1)
	copy(path, e.Path)
	path[len(e.Path)] = i
	return Element{Payload: payload, Path: path}
}

// Property returns one payload value.
func (e Element) Property(name string) (any, bool) {
	v, ok := e.Payload[name]
	return v, ok
}

// ErrorMarker is the sentinel payload substituted for a failed
// per-element computation in forgiving mode.
type ErrorMarker struct {
	// Kind is the machine-readable error code of the failure.
	Kind string
	// Message is the failure description.
	Message string
	// Node names the operation whose function failed.
	Node string
}

// markerElement builds the replacement element for a failed one.
func markerElement(src Element, marker ErrorMarker) Element {
	return src.Derive(map[string]any{MarkerKey: marker})
}

// MarkerOf returns the element's error marker, if it carries one.
func MarkerOf(e Element) (ErrorMarker, bool) {
	v, ok := e.Payload[MarkerKey]
	if !ok {
		return ErrorMarker{}, false
	}
	m, ok := v.(ErrorMarker)
	return m, ok
}

// IsMarker reports whether the element stands in for a failure.
func IsMarker(e Element) bool {
	_, ok := MarkerOf(e)
	return ok
}
