package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "cli-worker",
	Short: "Run coding-agent CLIs on tasks in isolated git worktrees",
	Long: `cli-worker hands a task to an external coding-agent CLI (Kimi CLI,
Claude Code or OpenCode), runs it inside a disposable git worktree, and
collects the completion report the agent leaves behind.

Examples:
  cli-worker verify
  cli-worker execute "Reply OK"
  cli-worker execute "Create hello.py" --constraint "Python 3.11"
  cli-worker status <taskId>
  cli-worker worktree list
  cli-worker cleanup --older-than 24`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors already reported to the user come
// back as *ExitError; anything else is printed here.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"settings file (default: $OPENCLAW_CONFIG or ~/.openclaw/openclaw.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log file format (line, text, json)")

	bindFlags()
}

// bindFlags binds global flags to viper (errors are nil when flag exists).
func bindFlags() {
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}
