package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
)

// DefaultGracePeriod is how long a timed-out child has between SIGTERM
// and SIGKILL.
const DefaultGracePeriod = 2 * time.Second

// Command describes one child process invocation. Args are passed as an
// argv array; no shell is ever involved.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
	// OnLine receives each stdout line, in order, as it is read.
	OnLine func(line string)
}

// Runner spawns child processes and captures their output.
type Runner struct {
	logger      *logging.Logger
	gracePeriod time.Duration
}

// NewRunner creates a runner with the default grace period.
func NewRunner(logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		logger:      logger,
		gracePeriod: DefaultGracePeriod,
	}
}

// WithGracePeriod overrides the SIGTERM to SIGKILL delay.
func (r *Runner) WithGracePeriod(d time.Duration) *Runner {
	r.gracePeriod = d
	return r
}

// escalation sends SIGKILL to the process group once the grace period
// after SIGTERM has elapsed, unless the process exits first.
type escalation struct {
	mu       sync.Mutex
	timer    *time.Timer
	finished bool
	timedOut bool
}

func (e *escalation) begin(grace time.Duration, cmd *exec.Cmd, deadline bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return nil
	}
	e.timedOut = deadline
	e.timer = time.AfterFunc(grace, func() {
		_ = killProcessGroup(cmd)
	})
	return terminateProcessGroup(cmd)
}

func (e *escalation) finish() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = true
	if e.timer != nil {
		e.timer.Stop()
	}
	return e.timedOut
}

// Run executes cmd and waits for it to exit. A nonzero exit status is
// reported through RunResult, not as an error; errors are returned only
// when the process could not be started.
func (r *Runner) Run(ctx context.Context, c Command) (*core.RunResult, error) {
	if c.Path == "" {
		return nil, core.ErrValidation(core.CodeInvalidFormat, "executable path not configured")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	// #nosec G204 -- path is sanitized and args are passed as argv, never through a shell
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = buildEnv(os.Environ(), c.Env)
	configureProcAttr(cmd)

	esc := &escalation{}
	cmd.Cancel = func() error {
		return esc.begin(r.gracePeriod, cmd, errors.Is(ctx.Err(), context.DeadlineExceeded))
	}
	// Backstop in case the group kill cannot reach the child.
	cmd.WaitDelay = r.gracePeriod + time.Second

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	r.logger.Info("cli: executing command",
		"path", c.Path,
		"args", redactArgs(c.Args),
		"work_dir", c.Dir,
		"timeout", c.Timeout,
	)

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, launchError(c.Path, err)
	}

	r.logger.Debug("cli: process started", "path", c.Path, "pid", cmd.Process.Pid)

	var (
		lines  []string
		stderr bytes.Buffer
		g      errgroup.Group
	)
	g.Go(func() error {
		return readLines(stdoutPipe, func(line string) {
			lines = append(lines, line)
			if c.OnLine != nil {
				c.OnLine(line)
			}
		})
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})
	// Read errors only occur when the pipe is torn down on kill.
	readErr := g.Wait()

	waitErr := cmd.Wait()
	timedOut := esc.finish()

	result := &core.RunResult{
		StdoutLines: lines,
		Stderr:      stderr.String(),
		Duration:    time.Since(startTime),
		TimedOut:    timedOut,
	}
	if cmd.ProcessState != nil {
		if sig, ok := exitSignal(cmd.ProcessState); ok {
			result.Signal = sig
		} else {
			code := cmd.ProcessState.ExitCode()
			result.ExitCode = &code
		}
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		r.logger.Warn("cli: wait returned error",
			"path", c.Path,
			"error", waitErr,
			"read_error", readErr,
		)
	}

	if result.Succeeded() {
		r.logger.Info("cli: command completed",
			"path", c.Path,
			"exit_code", 0,
			"duration", result.Duration,
			"stdout_lines", len(lines),
		)
	} else {
		r.logger.Info("cli: command failed",
			"path", c.Path,
			"exit_code", exitCodeAttr(result),
			"signal", result.Signal,
			"timed_out", timedOut,
			"duration", result.Duration,
			"stderr", truncate(result.Stderr, 2000),
		)
	}

	return result, nil
}

// readLines calls fn for every line read from rd, including a final line
// without a trailing newline. Lines may be of any length.
func readLines(rd io.Reader, fn func(string)) error {
	br := bufio.NewReaderSize(rd, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if err == nil || line != "" {
				fn(line)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func buildEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	env = append(env, base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func launchError(path string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return core.ErrNotFound("executable", path).WithCause(err)
	}
	return core.ErrExecution(core.CodeLaunchFailed,
		fmt.Sprintf("could not start %s", path)).WithCause(err)
}

// redactArgs hides prompt text from logs; only argument lengths of long
// values are kept.
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if len(a) > 80 || strings.ContainsAny(a, "\n\r") {
			out[i] = fmt.Sprintf("<%d chars>", len(a))
			continue
		}
		out[i] = a
	}
	return out
}

func exitCodeAttr(r *core.RunResult) any {
	if r.ExitCode == nil {
		return nil
	}
	return *r.ExitCode
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "... [truncated]"
	}
	return s
}
