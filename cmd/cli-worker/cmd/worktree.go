package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var worktreeCmd = &cobra.Command{
	Use:   "worktree",
	Short: "Manage task worktrees",
}

var worktreeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List task worktrees",
	Args:  cobra.NoArgs,
	RunE:  runWorktreeList,
}

var worktreeRemoveCmd = &cobra.Command{
	Use:   "remove <taskId>",
	Short: "Remove the worktree of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorktreeRemove,
}

func init() {
	rootCmd.AddCommand(worktreeCmd)
	worktreeCmd.AddCommand(worktreeListCmd, worktreeRemoveCmd)

	worktreeListCmd.Flags().String("repo", "", "repository path (default: current directory)")
}

func runWorktreeList(cmd *cobra.Command, _ []string) error {
	repo, _ := cmd.Flags().GetString("repo")
	cwd, err := workingDir()
	if err != nil {
		return fail(cmd, "", err)
	}

	a := newApp(cmd)
	defer a.Close()

	worktrees, err := a.svc.ListWorktrees(cmd.Context(), cwd, repo)
	if err != nil {
		return fail(cmd, "Failed to list worktrees: ", err)
	}

	out := cmd.OutOrStdout()
	if len(worktrees) == 0 {
		fmt.Fprintln(out, "No worktrees found.")
		return nil
	}
	for _, wt := range worktrees {
		id := wt.TaskID
		if id == "" {
			id = "?"
		}
		fmt.Fprintf(out, "%s\t%s\n", id, wt.Path)
	}
	return nil
}

func runWorktreeRemove(cmd *cobra.Command, args []string) error {
	a := newApp(cmd)
	defer a.Close()

	path, err := a.svc.RemoveWorktree(cmd.Context(), args[0])
	if err != nil {
		return fail(cmd, "Remove failed: ", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed worktree: %s\n", path)
	return nil
}
