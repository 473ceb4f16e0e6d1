package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/config"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/service"
)

// ExitError carries a process exit code to main. The message, if any, has
// already been written to stderr.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}

// app bundles what every command needs.
type app struct {
	settings *config.Settings
	logger   *logging.Logger
	svc      *service.TaskService
	closeLog func()
}

// newApp loads settings, opens the durable log and builds the service.
// An unreadable settings file is reported as a warning and defaults apply.
func newApp(cmd *cobra.Command) *app {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	settings, err := loader.Load()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", describe(err))
	}

	logger, closeLog := newLogger(settings, cmd.ErrOrStderr())
	registry := cli.NewRegistry(logger)
	return &app{
		settings: settings,
		logger:   logger,
		svc:      service.NewTaskService(settings, registry, logger),
		closeLog: closeLog,
	}
}

func (a *app) Close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

// newLogger writes to the rotating log file at the configured level and to
// stderr at warn. Without a usable log directory only stderr remains.
func newLogger(s *config.Settings, stderr io.Writer) (*logging.Logger, func()) {
	dir := s.Log.Dir
	if dir == "" {
		dir = logging.DefaultLogDir()
	}
	console := logging.Config{Level: "warn", Format: "auto", Output: stderr}

	file, err := logging.OpenRotatingFile(config.ExpandHome(dir), logging.LogFileName, logging.DefaultMaxLogBytes)
	if err != nil {
		logger := logging.New(console)
		logger.Warn("log file unavailable", "dir", dir, "error", err)
		return logger, func() {}
	}

	logger := logging.NewTee(
		logging.Config{Level: s.Log.Level, Format: s.Log.Format, Output: file},
		console,
	)
	return logger, func() { _ = file.Close() }
}

// describe renders an error for humans: the domain message and its cause,
// without the category framing.
func describe(err error) string {
	var de *core.DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}
	if de.Cause != nil {
		return de.Message + ": " + de.Cause.Error()
	}
	return de.Message
}

// fail reports err on stderr and returns the matching *ExitError. Errors
// with a well-known shape get a fixed message; the rest are prefixed.
func fail(cmd *cobra.Command, prefix string, err error) error {
	w := cmd.ErrOrStderr()

	var de *core.DomainError
	if !errors.As(err, &de) {
		fmt.Fprintln(w, prefix+err.Error())
		return &ExitError{Code: 1, Err: err}
	}

	switch {
	case de.Code == core.CodeUnknownProvider:
		fmt.Fprintln(w, "✗ Unknown provider: "+strings.TrimPrefix(de.Message, "unknown provider: "))
		fmt.Fprintln(w, "\nValid providers: "+de.Detail("valid"))
		if s := de.Detail("suggestion"); s != "" {
			fmt.Fprintf(w, "Did you mean %q?\n", s)
		}
	case de.Code == core.CodeInvalidTaskID:
		fmt.Fprintln(w, "Invalid taskId: must be alphanumeric and hyphens only (no path traversal).")
	case de.Code == core.CodeNotGitRepo:
		fmt.Fprintln(w, "Not a git repository. Run from repo root or use --repo <path>.")
	case de.Code == core.CodeAgentFailed:
		fmt.Fprintln(w, de.Message)
	case de.Category == core.ErrCatAuth:
		fmt.Fprintln(w, "✗ "+de.Message)
		if hint := de.Detail("hint"); hint != "" {
			fmt.Fprintln(w, "\nTo fix:\n  "+hint)
		}
	default:
		fmt.Fprintln(w, prefix+describe(err))
	}
	return &ExitError{Code: service.ExitCode(err), Err: err}
}

// workingDir returns the process working directory.
func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return cwd, nil
}
