package service

import (
	"context"
	"os"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/adapters/git"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/manifest"
)

// ExecuteRequest describes one task invocation.
type ExecuteRequest struct {
	Prompt          string
	Provider        string
	Cwd             string
	Repo            string
	BaseRef         string
	Timeout         time.Duration
	RelevantFiles   []string
	Constraints     []string
	SuccessCriteria []string
	// OnLine receives agent stdout lines as they arrive.
	OnLine func(line string)
}

// ExecuteResult is a finished task.
type ExecuteResult struct {
	TaskID           string
	Provider         core.Provider
	WorktreePath     string
	Isolated         bool
	ManifestPath     string
	InstructionsPath string
	ReportPath       string
	FinalText        string
	Run              *core.RunResult
}

// Execute runs one task end to end. The manifest and instructions are on
// disk before the agent starts. A failed agent run returns the partial
// result together with a CodeAgentFailed error.
func (s *TaskService) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	task := core.TaskInput{
		Prompt:          req.Prompt,
		RelevantFiles:   req.RelevantFiles,
		Constraints:     req.Constraints,
		SuccessCriteria: req.SuccessCriteria,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	provider, err := s.Provider(req.Provider)
	if err != nil {
		return nil, err
	}
	if v := provider.Verify(ctx); !v.OK {
		s.logger.Warn("service: provider not ready", "provider", string(provider.ID()), "reason", v.Reason)
		return nil, v.AuthError(provider.ID(), provider.RemediationHint())
	}

	taskID := s.newID()
	logger := s.logger.WithTask(taskID).WithProvider(string(provider.ID()))
	result := &ExecuteResult{TaskID: taskID, Provider: provider}

	if req.Cwd == "" {
		if req.Cwd, err = os.Getwd(); err != nil {
			return nil, core.ErrIO(core.CodeReadFailed, "resolving working directory").WithCause(err)
		}
	}
	repoPath := git.RepoPath(req.Cwd, req.Repo)
	var gitBase string
	if git.IsRepo(repoPath) {
		s.checkHost(logger, s.settings.WorktreeBasePath())
		mgr, err := s.worktrees(repoPath)
		if err != nil {
			return nil, err
		}
		wt, err := mgr.Create(ctx, taskID, req.BaseRef)
		if err != nil {
			return nil, err
		}
		result.WorktreePath = wt.Path
		result.Isolated = true
		gitBase = wt.BaseCommit
	} else {
		s.checkHost(logger, req.Cwd)
		logger.Warn("service: not a git repository, running in working directory", "repo", repoPath)
		result.WorktreePath = req.Cwd
	}

	result.ReportPath = manifest.ReportPath(result.WorktreePath, provider.ReportSubdir(), taskID)
	task.WorktreePath = result.WorktreePath
	task.TaskID = taskID
	task.ReportPath = result.ReportPath

	result.ManifestPath, err = manifest.Write(taskID, task, result.WorktreePath, result.ReportPath, gitBase)
	if err != nil {
		return result, err
	}
	doc, err := manifest.RenderInstructions(task, provider.InstructionsTitle())
	if err != nil {
		return result, err
	}
	result.InstructionsPath, err = manifest.WriteInstructions(result.WorktreePath, doc)
	if err != nil {
		return result, err
	}

	timeout := s.runTimeout(req.Timeout)
	logger.Info("service: running agent",
		"worktree", result.WorktreePath,
		"isolated", result.Isolated,
		"timeout", timeout,
	)

	run, err := provider.Run(ctx, req.Prompt, result.WorktreePath, core.RunOptions{
		Timeout: timeout,
		OnLine:  req.OnLine,
	})
	if err != nil {
		return result, err
	}
	result.Run = run

	if !run.Succeeded() {
		return result, agentFailure(provider, run)
	}

	result.FinalText = provider.ParseOutput(run.StdoutLines).FinalText
	logger.Info("service: task completed", "duration", run.Duration, "report", result.ReportPath)
	return result, nil
}
