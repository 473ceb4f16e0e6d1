package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// BranchPrefix namespaces the branch created for each task.
const BranchPrefix = "openclaw/"

// resolvePath resolves symlinks and returns an absolute path.
// This is needed for cross-platform path comparison (e.g., macOS /var -> /private/var).
func resolvePath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return abs
	}
	return resolved
}

// WorktreeManager creates and removes per-task worktrees under a base directory.
type WorktreeManager struct {
	git     *Client
	baseDir string
	logger  *logging.Logger
}

// NewWorktreeManager creates a new worktree manager.
func NewWorktreeManager(git *Client, baseDir string, logger *logging.Logger) *WorktreeManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WorktreeManager{
		git:     git,
		baseDir: baseDir,
		logger:  logger,
	}
}

// Worktree is one task workspace.
type Worktree struct {
	Path       string
	TaskID     string
	Branch     string
	BaseCommit string
	ModTime    time.Time
}

// CleanupResult summarizes a cleanup sweep.
type CleanupResult struct {
	Removed  int
	Failures []string
}

// Create adds a worktree for taskID on a new branch openclaw/<taskID>
// starting at baseRef (HEAD when empty).
func (m *WorktreeManager) Create(ctx context.Context, taskID, baseRef string) (*Worktree, error) {
	worktreePath, err := validation.ResolveUnderBase(m.baseDir, taskID)
	if err != nil {
		return nil, err
	}
	if baseRef == "" {
		baseRef = "HEAD"
	}

	if _, err := os.Stat(worktreePath); err == nil {
		return nil, core.ErrWorkspace(core.CodeWorktreeExists,
			fmt.Sprintf("worktree already exists: %s", worktreePath))
	}

	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return nil, core.ErrIO(core.CodeWriteFailed, "creating worktree directory").WithCause(err)
	}

	branch := BranchPrefix + taskID
	if _, err := m.git.run(ctx, "worktree", "add", "-b", branch, worktreePath, baseRef); err != nil {
		return nil, core.ErrWorkspace(core.CodeWorktreeCreateFailed,
			fmt.Sprintf("could not create worktree for task %s", taskID)).WithCause(err)
	}

	info, err := os.Stat(worktreePath)
	if err != nil || !info.IsDir() {
		return nil, core.ErrWorkspace(core.CodeWorktreeCreateFailed,
			fmt.Sprintf("worktree %s missing after creation", worktreePath))
	}

	wt := &Worktree{
		Path:    worktreePath,
		TaskID:  taskID,
		Branch:  branch,
		ModTime: info.ModTime(),
	}
	if commit, err := m.git.RevParse(ctx, baseRef); err == nil {
		wt.BaseCommit = commit
	} else {
		m.logger.Debug("git: could not resolve base commit", "ref", baseRef, "error", err)
	}

	m.logger.Info("git: worktree created", "task_id", taskID, "path", worktreePath, "branch", branch)
	return wt, nil
}

// List returns the worktrees under the base directory.
func (m *WorktreeManager) List(ctx context.Context) ([]Worktree, error) {
	output, err := m.git.run(ctx, "worktree", "list")
	if err != nil {
		return nil, core.ErrWorkspace(core.CodeWorktreeListFailed, "could not list worktrees").WithCause(err)
	}

	worktrees := ParseWorktreeList(output, m.baseDir, m.git.RepoPath())
	for i := range worktrees {
		if info, err := os.Stat(worktrees[i].Path); err == nil {
			worktrees[i].ModTime = info.ModTime()
		}
	}
	return worktrees, nil
}

// ParseWorktreeList parses `git worktree list` output. The first
// whitespace-separated token of each line is the path; relative paths are
// resolved against repoPath. Only strict descendants of baseDir are kept,
// and the first path segment below baseDir is the task ID.
func ParseWorktreeList(output, baseDir, repoPath string) []Worktree {
	worktrees := make([]Worktree, 0)

	bases := []string{filepath.Clean(baseDir)}
	if abs, err := filepath.Abs(baseDir); err == nil {
		bases[0] = abs
	}
	if resolved := resolvePath(bases[0]); resolved != bases[0] {
		bases = append(bases, resolved)
	}

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		path := fields[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(repoPath, path)
		}
		path = filepath.Clean(path)

		for _, base := range bases {
			if !validation.IsStrictlyWithin(base, path) {
				continue
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				break
			}
			taskID := strings.Split(rel, string(filepath.Separator))[0]
			worktrees = append(worktrees, Worktree{
				Path:   path,
				TaskID: taskID,
				Branch: BranchPrefix + taskID,
			})
			break
		}
	}

	return worktrees
}

// Remove force-removes the worktree at path, running git from inside it.
func (m *WorktreeManager) Remove(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.ErrNotFound("worktree", path)
		}
		return core.ErrIO(core.CodeReadFailed, "checking worktree").WithCause(err)
	}

	if _, err := m.git.runIn(ctx, path, "worktree", "remove", "--force", "."); err != nil {
		return core.ErrWorkspace(core.CodeWorktreeRemoveFailed,
			fmt.Sprintf("could not remove worktree %s", path)).WithCause(err)
	}

	m.logger.Info("git: worktree removed", "path", path)
	return nil
}

// Cleanup removes every managed worktree whose directory was last modified
// before now minus olderThan. A failure on one worktree does not stop the
// sweep; worktrees that vanish meanwhile count as already clean.
func (m *WorktreeManager) Cleanup(ctx context.Context, olderThan time.Duration, now time.Time) (CleanupResult, error) {
	var result CleanupResult

	worktrees, err := m.List(ctx)
	if err != nil {
		return result, err
	}

	cutoff := now.Add(-olderThan)
	for _, wt := range worktrees {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", wt.Path, err))
			continue
		}

		info, err := os.Stat(wt.Path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", wt.Path, err))
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := m.Remove(ctx, wt.Path); err != nil {
			if core.IsCategory(err, core.ErrCatNotFound) {
				continue
			}
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", wt.Path, err))
			continue
		}
		result.Removed++
	}

	// Drop administrative entries for worktrees deleted out from under git.
	if _, err := m.git.run(ctx, "worktree", "prune"); err != nil {
		m.logger.Warn("git: worktree prune failed", "error", err)
	}

	m.logger.Info("git: cleanup finished",
		"removed", result.Removed,
		"failures", len(result.Failures),
		"older_than", olderThan,
	)
	return result, nil
}

// BaseDir returns the base directory for worktrees.
func (m *WorktreeManager) BaseDir() string {
	return m.baseDir
}

// Client returns the underlying git client.
func (m *WorktreeManager) Client() *Client {
	return m.git
}
