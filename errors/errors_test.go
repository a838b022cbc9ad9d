package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	err := New(ErrCodeUnknownNode, "no such node")
	want := "UNKNOWN_NODE: no such node"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestPipelineError_ErrorWithCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(ErrCodeInternal, "engine fault").WithCause(cause)
	want := "INTERNAL_ERROR: engine fault (cause: boom)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Database("load", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("expected empty code for nil, got %q", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != ErrCodeInternal {
		t.Fatalf("expected INTERNAL_ERROR for plain error, got %q", got)
	}
	if got := CodeOf(UnknownNode("stats", "database")); got != ErrCodeUnknownNode {
		t.Fatalf("expected UNKNOWN_NODE, got %q", got)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := GraphCycle("path_list", []string{"a", "b"})
	wrapped := fmt.Errorf("building graph: %w", inner)
	if got := CodeOf(wrapped); got != ErrCodeGraphCycle {
		t.Fatalf("expected GRAPH_CYCLE through wrapping, got %q", got)
	}
}

func TestIsCode(t *testing.T) {
	err := DuplicateNode("bag", "directory")
	if !IsCode(err, ErrCodeDuplicateNode) {
		t.Fatal("expected IsCode match")
	}
	if IsCode(err, ErrCodeGraphCycle) {
		t.Fatal("unexpected IsCode match")
	}
	if IsCode(nil, ErrCodeGraphCycle) {
		t.Fatal("nil error must not match any code")
	}
}

func TestRetryable(t *testing.T) {
	if !Database("query", nil).Retryable {
		t.Fatal("database errors should be retryable")
	}
	if ElementFailed("transform", []int{1}, nil).Retryable {
		t.Fatal("element failures should not be retryable")
	}
}

func TestWithDetail(t *testing.T) {
	err := Internal("cache corrupted").WithDetail("node", "docs")
	if err.Details["node"] != "docs" {
		t.Fatalf("expected detail to be set, got %v", err.Details)
	}
}
