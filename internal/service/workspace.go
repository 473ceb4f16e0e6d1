package service

import (
	"context"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/adapters/git"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/config"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/fsutil"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/manifest"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/report"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// StatusRequest selects a task report.
type StatusRequest struct {
	TaskID   string
	Provider string
	// Wait, when positive, blocks up to this long for the report to appear.
	Wait time.Duration
}

// Status reads the report of a task run in a managed worktree. The
// report path is returned even when reading fails.
func (s *TaskService) Status(ctx context.Context, req StatusRequest) (*report.Report, string, error) {
	provider, err := s.Provider(req.Provider)
	if err != nil {
		return nil, "", err
	}

	worktreeDir, err := validation.ResolveUnderBase(s.settings.WorktreeBasePath(), req.TaskID)
	if err != nil {
		return nil, "", err
	}
	reportPath := manifest.ReportPath(worktreeDir, provider.ReportSubdir(), req.TaskID)

	if req.Wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, req.Wait)
		defer cancel()
		if err := report.Wait(waitCtx, reportPath); err != nil {
			s.logger.Debug("service: report wait ended", "path", reportPath, "error", err)
		}
	}

	r, err := report.Parse(reportPath)
	if err != nil {
		return nil, reportPath, err
	}
	return r, reportPath, nil
}

// ListWorktrees lists the task worktrees of the repository selected by
// cwd and the repo flag.
func (s *TaskService) ListWorktrees(ctx context.Context, cwd, repo string) ([]git.Worktree, error) {
	mgr, err := s.worktrees(git.RepoPath(cwd, repo))
	if err != nil {
		return nil, err
	}
	return mgr.List(ctx)
}

// RemoveWorktree removes the worktree of taskID and returns its path.
func (s *TaskService) RemoveWorktree(ctx context.Context, taskID string) (string, error) {
	path, err := validation.ResolveUnderBase(s.settings.WorktreeBasePath(), taskID)
	if err != nil {
		return "", err
	}
	if !fsutil.IsDir(path) {
		return path, core.ErrNotFound("worktree", path)
	}

	// A linked worktree is itself a valid repository for git commands.
	mgr, err := s.worktrees(path)
	if err != nil {
		return path, err
	}
	if err := mgr.Remove(ctx, path); err != nil {
		return path, err
	}
	return path, nil
}

// Cleanup removes worktrees last modified more than olderThan ago. A
// non-positive olderThan uses the configured default.
func (s *TaskService) Cleanup(ctx context.Context, cwd, repo string, olderThan time.Duration) (git.CleanupResult, error) {
	if olderThan <= 0 {
		hours := s.settings.Cleanup.OlderThanHours
		if hours <= 0 {
			hours = config.DefaultOlderThanHours
		}
		olderThan = time.Duration(hours) * time.Hour
	}

	mgr, err := s.worktrees(git.RepoPath(cwd, repo))
	if err != nil {
		return git.CleanupResult{}, err
	}
	return mgr.Cleanup(ctx, olderThan, s.now())
}
