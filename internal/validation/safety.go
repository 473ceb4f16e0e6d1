// Package validation guards every externally supplied identifier, path and
// prompt before it reaches the filesystem or a child process.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// MaxTaskIDLength bounds task identifiers. A UUID is 36 characters.
const MaxTaskIDLength = 200

// MaxExecutablePathLength bounds executable overrides read from the environment.
const MaxExecutablePathLength = 512

var (
	taskIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,199}$`)

	// Rejects whitespace, shell metacharacters, quotes and C0 controls.
	executablePathPattern = regexp.MustCompile("^[^\\s;|&$`\"'<>\\x00-\\x1f]+$")

	promptControlPattern = regexp.MustCompile(`[\x01-\x08\x0b\x0c\x0e-\x1f]`)
)

// IsSafeTaskID reports whether id can be used as a single path segment.
func IsSafeTaskID(id string) bool {
	return taskIDPattern.MatchString(id)
}

// ResolveUnderBase joins base and id and returns the absolute result,
// refusing unsafe identifiers and anything that lands outside base.
func ResolveUnderBase(base, id string) (string, error) {
	if !IsSafeTaskID(id) {
		return "", core.ErrValidation(core.CodeInvalidTaskID,
			"invalid task id: must be alphanumeric and hyphens only (no path traversal)").
			WithDetail("task_id", id)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	resolved := filepath.Join(absBase, id)

	if !IsWithin(absBase, resolved) {
		return "", core.ErrValidation(core.CodePathEscape,
			fmt.Sprintf("path %s escapes %s", resolved, absBase))
	}
	return resolved, nil
}

// IsWithin reports whether target equals base or lies beneath it.
// Both paths are compared after cleaning; symlinks are not followed.
func IsWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)
	if target == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

// IsStrictlyWithin reports whether target lies beneath base and is not base itself.
func IsStrictlyWithin(base, target string) bool {
	return IsWithin(base, target) && filepath.Clean(base) != filepath.Clean(target)
}

// SanitizeExecutablePath returns value when it is a plausible executable
// path, otherwise fallback.
func SanitizeExecutablePath(value, fallback string) string {
	if value == "" || len(value) > MaxExecutablePathLength {
		return fallback
	}
	if !executablePathPattern.MatchString(value) {
		return fallback
	}
	return value
}

// ExecutablePathFromEnv reads envKey and sanitizes it.
func ExecutablePathFromEnv(envKey, fallback string) string {
	return SanitizeExecutablePath(os.Getenv(envKey), fallback)
}

// SanitizePrompt strips NUL bytes and replaces other control characters,
// except tab, newline and carriage return, with a space.
func SanitizePrompt(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	return promptControlPattern.ReplaceAllString(text, " ")
}
