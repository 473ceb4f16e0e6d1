package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := (&DomainError{
		Category: ErrCatValidation,
		Code:     "CODE",
		Message:  "message",
	}).WithCause(cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be unwrapped")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match cause")
	}

	match := &DomainError{Category: ErrCatValidation, Code: "CODE"}
	if !errors.Is(err, match) {
		t.Fatalf("expected errors.Is to match category and code")
	}
}

func TestDomainError_ErrorString(t *testing.T) {
	err := ErrWorkspace(CodeWorktreeExists, "already there")
	if got := err.Error(); got != "[workspace] WORKTREE_EXISTS: already there" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := &DomainError{Category: ErrCatExecution, Code: "X", Message: "msg"}
	err.WithDetail("k", "v").WithDetail("n", 3)
	if err.Detail("k") != "v" {
		t.Fatalf("expected string detail")
	}
	if err.Detail("n") != "3" {
		t.Fatalf("expected formatted detail, got %q", err.Detail("n"))
	}
	if err.Detail("missing") != "" {
		t.Fatalf("expected empty detail for missing key")
	}
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name      string
		err       *DomainError
		category  ErrorCategory
		retryable bool
	}{
		{"validation", ErrValidation("C", "m"), ErrCatValidation, false},
		{"auth", ErrAuth("C", "m"), ErrCatAuth, false},
		{"workspace", ErrWorkspace("C", "m"), ErrCatWorkspace, false},
		{"execution", ErrExecution("C", "m"), ErrCatExecution, true},
		{"timeout", ErrTimeout("m"), ErrCatTimeout, true},
		{"io", ErrIO("C", "m"), ErrCatIO, false},
		{"parse", ErrParse("C", "m"), ErrCatParse, false},
		{"not found", ErrNotFound("report", "x"), ErrCatNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("category = %s, want %s", tt.err.Category, tt.category)
			}
			if IsRetryable(tt.err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", IsRetryable(tt.err), tt.retryable)
			}
		})
	}
}

func TestGetCategory_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotFound("worktree", "/tmp/x"))
	if !IsCategory(wrapped, ErrCatNotFound) {
		t.Fatalf("expected not_found through wrapping")
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Fatalf("plain errors should be internal")
	}
}
