package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindNotFound, "gone")); got != KindNotFound {
		t.Errorf("KindOf = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("unclassified KindOf = %v, want InternalError", got)
	}
	wrapped := fmt.Errorf("context: %w", New(KindDuplicateTitle, "dup"))
	if got := KindOf(wrapped); got != KindDuplicateTitle {
		t.Errorf("wrapped KindOf = %v, want DuplicateTitle", got)
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(KindNotFound, "song not found")); got != "song not found" {
		t.Errorf("MessageOf = %q", got)
	}
	// Internal details never leak to clients.
	if got := MessageOf(errors.New("dial tcp 10.0.0.1: refused")); got != "internal server error" {
		t.Errorf("unclassified MessageOf = %q", got)
	}
}

func TestErrorsIsMatchesOnKind(t *testing.T) {
	err := Wrap(KindStorageConflict, "exists", errors.New("cause"))
	if !errors.Is(err, New(KindStorageConflict, "")) {
		t.Error("errors.Is should match on kind")
	}
	if errors.Is(err, New(KindNotFound, "")) {
		t.Error("errors.Is must not match a different kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(KindInternal, "wrapped", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}
