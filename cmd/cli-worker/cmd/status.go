package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/report"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/service"
)

var statusCmd = &cobra.Command{
	Use:   "status <taskId>",
	Short: "Show task status from its report",
	Long: `Read the completion report the agent wrote for a task.

The report is looked up in the task's worktree under the configured base
path, in the report directory of the selected provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("provider", "", "agent CLI that ran the task (kimi, claude, opencode)")
	statusCmd.Flags().Bool("json", false, "print the report as JSON")
	statusCmd.Flags().Bool("yaml", false, "print the report as YAML")
	statusCmd.Flags().Duration("wait", 0, "wait up to this long for the report to appear")
	statusCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	taskID := args[0]
	provider, _ := cmd.Flags().GetString("provider")
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	wait, _ := cmd.Flags().GetDuration("wait")

	a := newApp(cmd)
	defer a.Close()

	r, _, err := a.svc.Status(cmd.Context(), service.StatusRequest{
		TaskID:   taskID,
		Provider: provider,
		Wait:     wait,
	})
	if err != nil {
		return fail(cmd, "Status failed: ", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fail(cmd, "Status failed: ", err)
		}
		fmt.Fprintln(out, string(data))
	case asYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fail(cmd, "Status failed: ", err)
		}
		fmt.Fprint(out, string(data))
	default:
		fmt.Fprint(out, formatStatus(taskID, r))
	}
	return nil
}

// formatStatus renders the human summary of a report. Absent fields are
// omitted, except the status which defaults to "unknown".
func formatStatus(taskID string, r *report.Report) string {
	var b strings.Builder

	if r.TaskID != "" {
		taskID = r.TaskID
	}
	status := r.Status()
	if status == "" {
		status = "unknown"
	}
	fmt.Fprintln(&b, "Task ID:", taskID)
	fmt.Fprintln(&b, "Status:", status)

	if e := r.Execution; e != nil && e.DurationSeconds != nil {
		fmt.Fprintln(&b, "Duration (s):", strconv.FormatFloat(*e.DurationSeconds, 'f', -1, 64))
	}
	if a := r.Artifacts; a != nil {
		if a.TestStatus != "" {
			fmt.Fprintln(&b, "Tests:", a.TestStatus)
		}
		if len(a.FilesModified) > 0 {
			fmt.Fprintln(&b, "Files modified:", strings.Join(a.FilesModified, ", "))
		}
	}
	if c := r.CognitiveState; c != nil && len(c.Blockers) > 0 {
		fmt.Fprintln(&b, "Blockers:", strings.Join(c.Blockers, "; "))
	}
	return b.String()
}
