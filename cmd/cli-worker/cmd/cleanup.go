package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove task worktrees older than N hours",
	Long: `Remove task worktrees whose directory was last modified more than
--older-than hours ago. Every stale worktree is attempted; failures are
listed and make the command exit 1.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().Int("older-than", 0, "age threshold in hours (default: cleanup.olderThanHours or 24)")
	cleanupCmd.Flags().String("repo", "", "repository path (default: current directory)")
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	hours, _ := cmd.Flags().GetInt("older-than")
	repo, _ := cmd.Flags().GetString("repo")
	cwd, err := workingDir()
	if err != nil {
		return fail(cmd, "", err)
	}

	a := newApp(cmd)
	defer a.Close()

	var olderThan time.Duration
	if hours > 0 {
		olderThan = time.Duration(hours) * time.Hour
	}
	result, err := a.svc.Cleanup(cmd.Context(), cwd, repo, olderThan)
	if err != nil {
		return fail(cmd, "Cleanup failed: ", err)
	}
	a.logger.Info("cleanup: finished", "removed", result.Removed, "failures", len(result.Failures))

	if result.Removed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d worktree(s).\n", result.Removed)
	}
	for _, f := range result.Failures {
		fmt.Fprintln(cmd.ErrOrStderr(), f)
	}
	if len(result.Failures) > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
