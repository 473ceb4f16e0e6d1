// Package diagnostics checks host resources before a task starts.
//
// An agent run can take many minutes and fills its worktree with build
// output, so Preflight looks at free disk space where the worktree will
// live, available memory and the load average. Findings are warnings: the
// caller logs them and carries on.
package diagnostics
