package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// OpenCodeProbeTimeout bounds `opencode auth list`.
const OpenCodeProbeTimeout = 10 * time.Second

// OpenCodeProvider drives the OpenCode CLI.
type OpenCodeProvider struct {
	baseProvider
}

var _ core.Provider = (*OpenCodeProvider)(nil)

// NewOpenCodeProvider creates an OpenCode provider. A nil runner gets a default one.
func NewOpenCodeProvider(runner *Runner, logger *logging.Logger) *OpenCodeProvider {
	return &OpenCodeProvider{
		baseProvider: newBaseProvider(core.ProviderOpenCode, "OpenCode", "OPENCODE_CLI_PATH", "opencode", runner, logger),
	}
}

// OpenCodeAuthFile returns the path of OpenCode's stored credentials,
// under $XDG_DATA_HOME or ~/.local/share.
func OpenCodeAuthFile() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "opencode", "auth.json")
}

// Verify runs `opencode auth list`. When that fails and no auth file
// exists, the missing login is reported instead of the raw failure.
func (o *OpenCodeProvider) Verify(ctx context.Context) core.VerifyResult {
	authFile := OpenCodeAuthFile()

	msg := o.probe(ctx, []string{"auth", "list"}, OpenCodeProbeTimeout, nil)
	if msg == "" {
		return core.VerifyResult{OK: true}
	}

	if _, err := os.Stat(authFile); err != nil {
		return core.VerifyResult{
			Reason: core.ReasonAuthMissing,
			Detail: "OpenCode auth file not found at " + authFile + ". Run 'opencode auth login' to authenticate.",
		}
	}
	return core.VerifyResult{
		Reason: core.ReasonRunFailed,
		Detail: "OpenCode CLI verification failed: " + msg + ". Ensure 'opencode' is on PATH and authenticated.",
	}
}

// Run executes the prompt with JSON output.
func (o *OpenCodeProvider) Run(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error) {
	args := []string{"run", validation.SanitizePrompt(prompt), "--format", "json"}
	return o.spawn(ctx, args, workDir, opts, nil)
}

// ParseOutput extracts text from OpenCode's JSON lines.
func (o *OpenCodeProvider) ParseOutput(lines []string) core.ParseResult {
	return ParseOpenCodeOutput(lines)
}

// InstructionsTitle is the AGENTS.md heading.
func (o *OpenCodeProvider) InstructionsTitle() string {
	return "OpenClaw OpenCode Worker - Task Instructions"
}

// RemediationHint explains how to authenticate OpenCode.
func (o *OpenCodeProvider) RemediationHint() string {
	return "1. Install OpenCode CLI\n  2. Authenticate: opencode auth login\n  3. Verify with: cli-worker verify --provider opencode"
}
