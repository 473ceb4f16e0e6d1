package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the agent CLI is installed and authenticated",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("provider", "", "agent CLI to check (kimi, claude, opencode)")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	flag, _ := cmd.Flags().GetString("provider")

	a := newApp(cmd)
	defer a.Close()

	p, result, err := a.svc.Verify(cmd.Context(), flag)
	if err != nil {
		return fail(cmd, "", err)
	}

	if result.OK {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is installed and authenticated.\n", p.DisplayName())
		return nil
	}

	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, "✗ Verification failed:", result.Reason)
	if result.Detail != "" {
		fmt.Fprintln(w, "\n"+result.Detail)
	}
	if hint := p.RemediationHint(); hint != "" {
		fmt.Fprintln(w, "\nTo fix:\n  "+hint)
	}
	return &ExitError{Code: 1}
}
