package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph definition errors (fatal, raised at graph-build time)
const (
	// ErrCodeGraphCycle indicates a node dependency cycle within a source kind.
	ErrCodeGraphCycle ErrorCode = "GRAPH_CYCLE"
	// ErrCodeDuplicateNode indicates two node specs share a name within a source kind.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"
)

// Resolution errors
const (
	// ErrCodeUnsupportedSource indicates the source value matches no known kind.
	ErrCodeUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"
	// ErrCodeUnknownNode indicates the requested node is not reachable for the instance's kind.
	ErrCodeUnknownNode ErrorCode = "UNKNOWN_NODE"
)

// Element errors
const (
	// ErrCodeElementFailed indicates a per-element function failed during realization.
	ErrCodeElementFailed ErrorCode = "ELEMENT_FAILED"
)

// Input and infrastructure errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeDatabaseError indicates a table load failed.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeInternal indicates an internal engine error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDatabaseError: true,
	ErrCodeElementFailed: false,
	ErrCodeInternal:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
