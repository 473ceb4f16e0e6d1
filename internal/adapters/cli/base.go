package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// Environment variables set on every managed child.
const (
	EnvManaged  = "OPENCLAW_MANAGED"
	EnvProvider = "OPENCLAW_PROVIDER"
)

// baseProvider holds what every provider shares: how to find its
// executable and how to spawn it.
type baseProvider struct {
	id          core.ProviderID
	displayName string
	pathEnv     string
	defaultPath string
	runner      *Runner
	logger      *logging.Logger
}

func newBaseProvider(id core.ProviderID, displayName, pathEnv, defaultPath string, runner *Runner, logger *logging.Logger) baseProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithProvider(string(id))
	if runner == nil {
		runner = NewRunner(logger)
	}
	return baseProvider{
		id:          id,
		displayName: displayName,
		pathEnv:     pathEnv,
		defaultPath: defaultPath,
		runner:      runner,
		logger:      logger,
	}
}

// ID returns the provider identifier.
func (b *baseProvider) ID() core.ProviderID { return b.id }

// DisplayName returns the human-facing CLI name.
func (b *baseProvider) DisplayName() string { return b.displayName }

// ReportSubdir is the directory under .openclaw that holds reports.
func (b *baseProvider) ReportSubdir() string { return string(b.id) + "-reports" }

// executable returns the override from the environment when it is safe,
// otherwise the bare command name resolved through PATH.
func (b *baseProvider) executable() string {
	return validation.ExecutablePathFromEnv(b.pathEnv, b.defaultPath)
}

func (b *baseProvider) env(extra map[string]string) map[string]string {
	env := map[string]string{
		EnvManaged:  "true",
		EnvProvider: string(b.id),
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// spawn runs the executable with args in workDir.
func (b *baseProvider) spawn(ctx context.Context, args []string, workDir string, opts core.RunOptions, extraEnv map[string]string) (*core.RunResult, error) {
	return b.runner.Run(ctx, Command{
		Path:    b.executable(),
		Args:    args,
		Dir:     workDir,
		Env:     b.env(extraEnv),
		Timeout: opts.Timeout,
		OnLine:  opts.OnLine,
	})
}

// probe runs a short readiness command and returns "" on success or a
// one-line description of the failure.
func (b *baseProvider) probe(ctx context.Context, args []string, timeout time.Duration, extraEnv map[string]string) string {
	result, err := b.spawn(ctx, args, "", core.RunOptions{Timeout: timeout}, extraEnv)
	if err != nil {
		b.logger.Debug("cli: probe could not start", "error", err)
		return launchMessage(err)
	}
	if result.Succeeded() {
		return ""
	}
	return failureMessage(result)
}

// launchMessage strips the domain error framing for user-facing text.
func launchMessage(err error) string {
	var de *core.DomainError
	if errors.As(err, &de) {
		if de.Cause != nil {
			return de.Cause.Error()
		}
		return de.Message
	}
	return err.Error()
}

// failureMessage describes a failed run: trimmed stderr when present,
// otherwise the exit status.
func failureMessage(r *core.RunResult) string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	if r.TimedOut {
		return "timed out"
	}
	if r.ExitCode == nil {
		return "killed by " + r.Signal
	}
	return fmt.Sprintf("exit %d", *r.ExitCode)
}
