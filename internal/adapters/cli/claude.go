package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// ClaudeProbeTimeout bounds the readiness run of the Claude CLI.
const ClaudeProbeTimeout = 30 * time.Second

// ClaudeProvider drives Claude Code.
type ClaudeProvider struct {
	baseProvider
}

var _ core.Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider. A nil runner gets a default one.
func NewClaudeProvider(runner *Runner, logger *logging.Logger) *ClaudeProvider {
	return &ClaudeProvider{
		baseProvider: newBaseProvider(core.ProviderClaude, "Claude Code", "CLAUDE_CLI_PATH", "claude", runner, logger),
	}
}

// Verify runs a trivial prompt. A failure mentioning auth while
// ANTHROPIC_API_KEY is unset is reported as an authentication problem.
func (c *ClaudeProvider) Verify(ctx context.Context) core.VerifyResult {
	msg := c.probe(ctx, []string{"-p", "Reply OK", "--output-format", "stream-json"}, ClaudeProbeTimeout, nil)
	if msg == "" {
		return core.VerifyResult{OK: true}
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" && strings.Contains(strings.ToLower(msg), "auth") {
		return core.VerifyResult{
			Reason: core.ReasonAuthFailed,
			Detail: "Claude CLI authentication failed. Set ANTHROPIC_API_KEY environment variable. Error: " + msg,
		}
	}
	return core.VerifyResult{
		Reason: core.ReasonRunFailed,
		Detail: "Claude CLI run failed: " + msg + ". Ensure 'claude' is on PATH and ANTHROPIC_API_KEY is set.",
	}
}

// Run executes the prompt with stream-json output.
func (c *ClaudeProvider) Run(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error) {
	args := []string{"-p", validation.SanitizePrompt(prompt), "--output-format", "stream-json"}
	return c.spawn(ctx, args, workDir, opts, nil)
}

// ParseOutput concatenates streamed text deltas.
func (c *ClaudeProvider) ParseOutput(lines []string) core.ParseResult {
	return ParseClaudeStream(lines)
}

// InstructionsTitle is the AGENTS.md heading.
func (c *ClaudeProvider) InstructionsTitle() string {
	return "OpenClaw Claude Worker - Task Instructions"
}

// RemediationHint explains how to install and authenticate Claude Code.
func (c *ClaudeProvider) RemediationHint() string {
	return "1. Install Claude CLI: npm install -g @anthropic-ai/claude-code\n  2. Set API key: export ANTHROPIC_API_KEY=your_key\n  3. Verify with: cli-worker verify --provider claude"
}
