// Package service orchestrates task execution: provider selection and
// verification, worktree setup, the manifest/instructions handoff, the agent
// run, and output parsing. It also backs the status and worktree commands.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/adapters/git"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/config"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
)

// TaskService runs tasks and manages their worktrees.
type TaskService struct {
	settings  *config.Settings
	registry  *cli.Registry
	logger    *logging.Logger
	preflight *diagnostics.Probe
	now       func() time.Time
	newID     func() string
}

// NewTaskService creates a task service. Nil settings mean defaults.
func NewTaskService(settings *config.Settings, registry *cli.Registry, logger *logging.Logger) *TaskService {
	if settings == nil {
		settings = config.Defaults()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if registry == nil {
		registry = cli.NewRegistry(logger)
	}
	return &TaskService{
		settings:  settings,
		registry:  registry,
		logger:    logger,
		preflight: diagnostics.NewProbe(diagnostics.DefaultThresholds()),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock overrides the time source used by cleanup.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// WithIDGenerator overrides task identifier generation.
func (s *TaskService) WithIDGenerator(fn func() string) *TaskService {
	s.newID = fn
	return s
}

// WithPreflight replaces the host resource probe. Nil disables it.
func (s *TaskService) WithPreflight(p *diagnostics.Probe) *TaskService {
	s.preflight = p
	return s
}

// Settings returns the loaded settings.
func (s *TaskService) Settings() *config.Settings {
	return s.settings
}

// Provider resolves the provider for an invocation. An explicit name that
// is not a known provider is an error; otherwise the configured precedence
// applies.
func (s *TaskService) Provider(flag string) (core.Provider, error) {
	if flag != "" {
		if _, ok := core.ParseProviderID(flag); !ok {
			return s.registry.Lookup(flag)
		}
	}
	id, source := config.ResolveProviderID(flag, s.settings)
	s.logger.Debug("service: provider resolved", "provider", string(id), "source", string(source))
	return s.registry.Get(id)
}

// Verify checks that the selected provider is ready.
func (s *TaskService) Verify(ctx context.Context, flag string) (core.Provider, core.VerifyResult, error) {
	p, err := s.Provider(flag)
	if err != nil {
		return nil, core.VerifyResult{}, err
	}
	result := p.Verify(ctx)
	if result.OK {
		s.logger.Info("service: provider verified", "provider", string(p.ID()))
	} else {
		s.logger.Warn("service: provider verification failed",
			"provider", string(p.ID()),
			"reason", result.Reason,
		)
	}
	return p, result, nil
}

// worktrees builds a manager for the repository at repoPath.
func (s *TaskService) worktrees(repoPath string) (*git.WorktreeManager, error) {
	client, err := git.NewClient(repoPath)
	if err != nil {
		return nil, err
	}
	return git.NewWorktreeManager(client, s.settings.WorktreeBasePath(), s.logger), nil
}

// checkHost logs host resource warnings for the filesystem holding path.
// It never fails the task.
func (s *TaskService) checkHost(logger *logging.Logger, path string) {
	if s.preflight == nil {
		return
	}
	result := s.preflight.Preflight(path)
	for _, w := range result.Warnings {
		logger.Warn("service: preflight", "warning", w)
	}
	logger.Debug("service: host snapshot",
		"disk_free_mb", int64(result.Snapshot.DiskFreeMB),
		"mem_available_mb", int64(result.Snapshot.MemAvailableMB),
		"load1", result.Snapshot.Load1,
	)
}

// runTimeout returns the explicit timeout, else the configured one.
func (s *TaskService) runTimeout(explicit time.Duration) time.Duration {
	if explicit > 0 {
		return explicit
	}
	if m := s.settings.CLIWorker.TimeoutMinutes; m > 0 {
		return time.Duration(m) * time.Minute
	}
	return 0
}

// ExitCode returns the process exit code carried by an agent failure, or 1
// for any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	de, ok := asDomainError(err)
	if !ok || de.Code != core.CodeAgentFailed {
		return 1
	}
	if code, ok := de.Details["exit_code"].(int); ok && code != 0 {
		return code
	}
	return 1
}

func agentFailure(p core.Provider, run *core.RunResult) *core.DomainError {
	code := run.ExitStatus()
	msg := fmt.Sprintf("%s failed (exit %d)", p.DisplayName(), code)
	stderr := truncate(run.Stderr, 2000)
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		msg += ": " + trimmed
	}
	return core.ErrExecution(core.CodeAgentFailed, msg).
		WithDetail("provider", string(p.ID())).
		WithDetail("exit_code", code).
		WithDetail("signal", run.Signal).
		WithDetail("timed_out", run.TimedOut).
		WithDetail("stderr", stderr)
}
