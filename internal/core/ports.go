package core

import (
	"context"
	"time"
)

// =============================================================================
// Provider Port
// =============================================================================

// ProviderID identifies one of the supported agent CLIs.
type ProviderID string

const (
	ProviderKimi     ProviderID = "kimi"
	ProviderClaude   ProviderID = "claude"
	ProviderOpenCode ProviderID = "opencode"
)

// DefaultProvider is used when nothing else selects a provider.
const DefaultProvider = ProviderKimi

// ProviderIDs lists every known provider in display order.
func ProviderIDs() []ProviderID {
	return []ProviderID{ProviderKimi, ProviderClaude, ProviderOpenCode}
}

// ParseProviderID returns the provider for s, or false if s is not known.
func ParseProviderID(s string) (ProviderID, bool) {
	for _, id := range ProviderIDs() {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// Provider defines the contract every agent CLI adapter satisfies.
type Provider interface {
	// ID returns the provider identifier.
	ID() ProviderID

	// DisplayName returns the human-facing CLI name (e.g., "Claude Code").
	DisplayName() string

	// Verify checks that the CLI is installed and authenticated.
	Verify(ctx context.Context) VerifyResult

	// Run executes the task prompt inside workDir.
	Run(ctx context.Context, prompt, workDir string, opts RunOptions) (*RunResult, error)

	// ParseOutput extracts the final answer from captured stdout lines.
	ParseOutput(lines []string) ParseResult

	// ReportSubdir is the directory under .openclaw holding reports.
	ReportSubdir() string

	// InstructionsTitle is the heading of the generated AGENTS.md.
	InstructionsTitle() string

	// RemediationHint tells the user how to fix a failed verification.
	RemediationHint() string
}

// Verification failure reasons.
const (
	ReasonConfigMissing      = "config_missing"
	ReasonCredentialsMissing = "credentials_missing"
	ReasonAuthMissing        = "auth_missing"
	ReasonAuthFailed         = "auth_failed"
	ReasonRunFailed          = "run_failed"
)

// VerifyResult is the outcome of a provider readiness check.
type VerifyResult struct {
	OK     bool
	Reason string
	Detail string
}

// AuthError converts a failed verification into a DomainError.
func (v VerifyResult) AuthError(provider ProviderID, hint string) *DomainError {
	code := CodeProbeFailed
	switch v.Reason {
	case ReasonConfigMissing:
		code = CodeConfigMissing
	case ReasonCredentialsMissing:
		code = CodeCredentialsMissing
	case ReasonAuthMissing:
		code = CodeAuthMissing
	case ReasonAuthFailed:
		code = CodeAuthFailed
	}
	msg := string(provider) + " verification failed: " + v.Reason
	if v.Detail != "" {
		msg += " (" + v.Detail + ")"
	}
	return ErrAuth(code, msg).
		WithDetail("provider", string(provider)).
		WithDetail("reason", v.Reason).
		WithDetail("hint", hint)
}

// RunOptions configures a provider run.
type RunOptions struct {
	Timeout time.Duration
	// OnLine, if set, receives each stdout line as it is read.
	OnLine func(line string)
}

// RunResult captures a finished child process.
type RunResult struct {
	// ExitCode is nil when the process was terminated by a signal.
	ExitCode    *int
	Signal      string
	StdoutLines []string
	Stderr      string
	Duration    time.Duration
	TimedOut    bool
}

// Succeeded reports whether the process exited with code 0.
func (r *RunResult) Succeeded() bool {
	return r != nil && r.ExitCode != nil && *r.ExitCode == 0
}

// ExitStatus returns the exit code, or 1 when the process had none.
func (r *RunResult) ExitStatus() int {
	if r == nil || r.ExitCode == nil {
		return 1
	}
	return *r.ExitCode
}

// ParseResult is the normalized output of a provider parser.
type ParseResult struct {
	FinalText string
	Events    []any
}
