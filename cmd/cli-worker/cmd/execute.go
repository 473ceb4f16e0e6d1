package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/service"
)

const executeUsage = `Usage: cli-worker execute "<prompt>" [--output-format text|json] [--constraint "X"] [--success "Y"] [--files "path1,path2"] [--provider kimi|claude|opencode]`

var executeCmd = &cobra.Command{
	Use:   "execute <prompt>",
	Short: "Run a task with an agent CLI",
	Long: `Run one task with the selected agent CLI.

Inside a git repository the task gets its own worktree on a new
openclaw/<taskId> branch; elsewhere the current directory is used. The
task manifest and AGENTS.md instructions are written before the agent
starts. With --output-format json (default) the agent's final answer is
printed; with text the raw output lines are.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().String("provider", "", "agent CLI to use (kimi, claude, opencode)")
	executeCmd.Flags().String("repo", "", "repository path (default: current directory)")
	executeCmd.Flags().Int("timeout", 0, "timeout in minutes")
	executeCmd.Flags().String("output-format", "json", "output format (text, json)")
	executeCmd.Flags().StringArray("constraint", nil, "constraint for the agent (repeatable)")
	executeCmd.Flags().StringArray("success", nil, "success criterion (repeatable)")
	executeCmd.Flags().String("files", "", "comma-separated relevant files")
}

func runExecute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), executeUsage)
		return &ExitError{Code: 1}
	}

	provider, _ := cmd.Flags().GetString("provider")
	repo, _ := cmd.Flags().GetString("repo")
	timeoutMinutes, _ := cmd.Flags().GetInt("timeout")
	outputFormat, _ := cmd.Flags().GetString("output-format")
	constraints, _ := cmd.Flags().GetStringArray("constraint")
	success, _ := cmd.Flags().GetStringArray("success")
	files, _ := cmd.Flags().GetString("files")

	cwd, err := workingDir()
	if err != nil {
		return fail(cmd, "", err)
	}

	a := newApp(cmd)
	defer a.Close()

	req := service.ExecuteRequest{
		Prompt:          args[0],
		Provider:        provider,
		Cwd:             cwd,
		Repo:            repo,
		RelevantFiles:   splitList(files),
		Constraints:     constraints,
		SuccessCriteria: success,
		OnLine: func(line string) {
			a.logger.Debug("execute: agent output", "line", line)
		},
	}
	// Values below one minute fall back to the configured timeout.
	if timeoutMinutes >= 1 {
		req.Timeout = time.Duration(timeoutMinutes) * time.Minute
	}

	res, err := a.svc.Execute(cmd.Context(), req)
	if err != nil {
		return fail(cmd, executeFailurePrefix(err), err)
	}
	a.logger.Info("execute: task finished",
		"task_id", res.TaskID,
		"worktree", res.WorktreePath,
		"report", res.ReportPath,
	)

	out := cmd.OutOrStdout()
	if outputFormat == "text" {
		for _, line := range res.Run.StdoutLines {
			fmt.Fprintln(out, line)
		}
		return nil
	}
	if res.FinalText != "" {
		fmt.Fprintln(out, res.FinalText)
	}
	return nil
}

func executeFailurePrefix(err error) string {
	var de *core.DomainError
	if !errors.As(err, &de) {
		return ""
	}
	switch de.Code {
	case core.CodeWorktreeExists, core.CodeWorktreeCreateFailed:
		return "Failed to create worktree: "
	case core.CodeWriteFailed:
		return "Could not write task files: "
	default:
		return ""
	}
}

// splitList splits a comma-separated flag, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
