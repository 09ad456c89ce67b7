package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input", nil), KindValidation},
		{"not found", NotFound("missing", nil), KindNotFound},
		{"conflict", Conflict("duplicate", nil), KindConflict},
		{"scoring", ScoringUnavailable("down", errors.New("dial tcp")), KindScoringUnavailable},
		{"storage", Storage("db down", nil), KindStorage},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("duplicate", nil)), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil inner preserved", NotFound("gone", nil), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := ScoringUnavailable("timeout", nil)
	if !Is(err, KindScoringUnavailable) {
		t.Error("Is() = false for matching kind")
	}
	if Is(err, KindStorage) {
		t.Error("Is() = true for non-matching kind")
	}
	if Is(errors.New("plain"), KindInternal) {
		t.Error("Is() should be false for errors outside the taxonomy")
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Storage("failed to persist candidate", inner)

	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to reach the inner error")
	}
	msg := err.Error()
	if msg != "STORAGE: failed to persist candidate: connection refused" {
		t.Errorf("unexpected message: %q", msg)
	}
	if len(err.Stack) == 0 {
		t.Error("expected a captured stack")
	}
}
