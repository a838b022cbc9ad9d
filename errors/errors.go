// Package errors provides unified error handling for the docpipe engine.
// It implements structured error types with error codes so callers can
// distinguish graph-definition defects, resolution failures, and
// per-element computation failures without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// PipelineError is the unified engine error type.
type PipelineError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *PipelineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *PipelineError) WithDetail(key string, value any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new PipelineError with automatic retryable detection.
func New(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns ErrCodeInternal for non-pipeline errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// --- Common Error Constructors ---

// UnsupportedSource creates an error for a source value matching no known kind.
func UnsupportedSource(sourceType string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeUnsupportedSource, Message: fmt.Sprintf("source type %s matches no supported source kind", sourceType),
		Details: map[string]any{"source_type": sourceType},
	}
}

// GraphCycle creates an error for a dependency cycle within a source kind.
func GraphCycle(kind string, remaining []string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeGraphCycle, Message: fmt.Sprintf("node dependency cycle for source kind %s", kind),
		Details: map[string]any{"kind": kind, "unresolved_nodes": remaining},
	}
}

// DuplicateNode creates an error for two specs sharing a name within a kind.
func DuplicateNode(name, kind string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeDuplicateNode, Message: fmt.Sprintf("node %q is declared more than once for source kind %s", name, kind),
		Details: map[string]any{"node": name, "kind": kind},
	}
}

// UnknownNode creates an error for a node name not reachable for a kind.
func UnknownNode(name, kind string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeUnknownNode, Message: fmt.Sprintf("node %q is not defined for source kind %s", name, kind),
		Details: map[string]any{"node": name, "kind": kind},
	}
}

// ElementFailed creates an error for a per-element computation failure.
func ElementFailed(node string, index []int, cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeElementFailed, Message: fmt.Sprintf("element function %q failed", node),
		Details: map[string]any{"node": node, "element_path": index},
		Cause:   cause,
	}
}

// InvalidInput creates an error for invalid construction input.
func InvalidInput(field, reason string) *PipelineError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &PipelineError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// MissingField creates an error for a missing required field.
func MissingField(field string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Database creates an error for a failed table load.
func Database(operation string, cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeDatabaseError, Message: fmt.Sprintf("database %s failed", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
		Cause: cause,
	}
}

// Internal creates an error for an unexpected engine condition.
func Internal(message string) *PipelineError {
	return &PipelineError{Code: ErrCodeInternal, Message: message}
}
