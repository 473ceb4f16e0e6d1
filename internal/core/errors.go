package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatAuth       ErrorCategory = "auth"       // Provider not usable
	ErrCatWorkspace  ErrorCategory = "workspace"  // Worktree lifecycle failure
	ErrCatExecution  ErrorCategory = "execution"  // Agent run failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatIO         ErrorCategory = "io"         // Filesystem failure
	ErrCatParse      ErrorCategory = "parse"      // Malformed document
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value as a string, or "" when absent.
func (e *DomainError) Detail(key string) string {
	v, ok := e.Details[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrAuth creates an error for a provider that failed verification.
func ErrAuth(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrWorkspace creates a worktree lifecycle error.
func ErrWorkspace(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatWorkspace,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrIO creates a filesystem error.
func ErrIO(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatIO,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrParse creates an error for a malformed document.
func ErrParse(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatParse,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	// Validation error codes
	CodeEmptyPrompt     = "EMPTY_PROMPT"
	CodeInvalidTaskID   = "INVALID_TASK_ID"
	CodePathEscape      = "PATH_ESCAPE"
	CodeUnknownProvider = "UNKNOWN_PROVIDER"
	CodeInvalidTimeout  = "INVALID_TIMEOUT"
	CodeInvalidFormat   = "INVALID_OUTPUT_FORMAT"
	CodeNotGitRepo      = "NOT_GIT_REPO"
	CodeInvalidConfig   = "INVALID_CONFIG"

	// Auth error codes, one per verification reason
	CodeConfigMissing      = "CONFIG_MISSING"
	CodeCredentialsMissing = "CREDENTIALS_MISSING"
	CodeAuthMissing        = "AUTH_MISSING"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeProbeFailed        = "PROBE_FAILED"

	// Workspace error codes
	CodeWorktreeExists       = "WORKTREE_EXISTS"
	CodeWorktreeCreateFailed = "WORKTREE_CREATE_FAILED"
	CodeWorktreeRemoveFailed = "WORKTREE_REMOVE_FAILED"
	CodeWorktreeListFailed   = "WORKTREE_LIST_FAILED"

	// Execution error codes
	CodeAgentFailed  = "AGENT_FAILED"
	CodeLaunchFailed = "LAUNCH_FAILED"

	// IO and parse error codes
	CodeWriteFailed     = "WRITE_FAILED"
	CodeReadFailed      = "READ_FAILED"
	CodeParseFailed     = "PARSE_FAILED"
	CodeInvalidManifest = "INVALID_MANIFEST"
	CodeInvalidReport   = "INVALID_REPORT"
)
