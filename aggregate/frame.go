// Package aggregate derives tabular summaries, projections, and
// vector-index payloads from realized bags. It never alters element
// payloads; external collaborators do the real storage I/O.
package aggregate

// Frame is an ordered tabular result: named columns, appended rows.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// Append adds one row. Values align positionally with Columns; missing
// trailing values read as nil.
func (f *Frame) Append(values ...any) {
	row := make([]any, len(f.Columns))
	copy(row, values)
	f.Rows = append(f.Rows, row)
}

// Len returns the row count.
func (f *Frame) Len() int { return len(f.Rows) }

// At returns the value at row i in the named column.
func (f *Frame) At(i int, column string) any {
	if i < 0 || i >= len(f.Rows) {
		return nil
	}
	for c, name := range f.Columns {
		if name == column {
			return f.Rows[i][c]
		}
	}
	return nil
}
