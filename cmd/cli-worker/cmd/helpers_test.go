package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/testutil"
)

// fakeClaude answers the readiness probe and replies to tasks with a
// streamed answer. A prompt of "fail" exits 3.
const fakeClaude = `
if [ "$2" = "Reply OK" ]; then exit 0; fi
if [ "$2" = "fail" ]; then echo "quota exceeded" >&2; exit 3; fi
echo '{"type":"stream_event","event":{"delta":{"type":"text_delta","text":"all "}}}'
echo '{"type":"stream_event","event":{"delta":{"type":"text_delta","text":"done"}}}'
echo '{"type":"result","result":"all done"}'`

type cliEnv struct {
	base string
	home string
}

// setupCLI isolates settings, logs and the agent CLI for one test.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	testutil.RequireShell(t)

	home := testutil.TempDir(t)
	base := filepath.Join(home, "worktrees")
	settings := testutil.TempFile(t, home, "openclaw.json",
		`{"worktree":{"basePath":"`+base+`"},"cliWorker":{"provider":"claude"}}`)
	bin := testutil.TempDir(t)

	t.Setenv("OPENCLAW_CONFIG", settings)
	t.Setenv("OPENCLAW_LOG_DIR", filepath.Join(home, "logs"))
	t.Setenv("OPENCLAW_CLI_PROVIDER", "")
	t.Setenv("CLAUDE_CLI_PATH", testutil.FakeCLI(t, bin, "claude", fakeClaude))
	return &cliEnv{base: base, home: home}
}

// runCLI executes the root command with args and captures its output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	viper.Reset()
	bindFlags()
	cfgFile = ""
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
