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

// KimiProbeTimeout bounds the readiness run of the Kimi CLI.
const KimiProbeTimeout = 30 * time.Second

// KimiProvider drives the Kimi CLI.
type KimiProvider struct {
	baseProvider
}

var _ core.Provider = (*KimiProvider)(nil)

// NewKimiProvider creates a Kimi provider. A nil runner gets a default one.
func NewKimiProvider(runner *Runner, logger *logging.Logger) *KimiProvider {
	return &KimiProvider{
		baseProvider: newBaseProvider(core.ProviderKimi, "Kimi CLI", "KIMI_CLI_PATH", "kimi", runner, logger),
	}
}

// KimiHome returns $KIMI_HOME, defaulting to ~/.kimi.
func KimiHome() string {
	if home := os.Getenv("KIMI_HOME"); home != "" {
		return home
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".kimi"
	}
	return filepath.Join(dir, ".kimi")
}

// Verify checks the config file, then stored credentials, then runs a
// trivial prompt. The first failing step is reported.
func (k *KimiProvider) Verify(ctx context.Context) core.VerifyResult {
	home := KimiHome()

	configPath := filepath.Join(home, "config.toml")
	if _, err := os.Stat(configPath); err != nil {
		return core.VerifyResult{
			Reason: core.ReasonConfigMissing,
			Detail: "Kimi config not found at " + configPath + ". Run 'kimi' then '/login' to authenticate.",
		}
	}

	credentialsDir := filepath.Join(home, "credentials")
	if !hasKimiCredentials(home, credentialsDir) {
		return core.VerifyResult{
			Reason: core.ReasonCredentialsMissing,
			Detail: "No credentials found in " + credentialsDir + ". Run 'kimi' then '/login' to authenticate.",
		}
	}

	msg := k.probe(ctx, []string{"--print", "-p", "Reply OK"}, KimiProbeTimeout, kimiEnv())
	if msg != "" {
		return core.VerifyResult{
			Reason: core.ReasonRunFailed,
			Detail: "Kimi CLI run failed: " + msg + ". Ensure 'kimi' is on PATH and authenticated.",
		}
	}
	return core.VerifyResult{OK: true}
}

func hasKimiCredentials(home, credentialsDir string) bool {
	if entries, err := os.ReadDir(credentialsDir); err == nil {
		for _, e := range entries {
			if e.Type().IsRegular() {
				return true
			}
		}
	}
	for _, p := range []string{
		filepath.Join(credentialsDir, "kimi-code.json"),
		filepath.Join(home, "token"),
	} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// Run executes the prompt with stream-json output.
func (k *KimiProvider) Run(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error) {
	args := []string{"--print", "-p", validation.SanitizePrompt(prompt), "--output-format=stream-json"}
	return k.spawn(ctx, args, workDir, opts, kimiEnv())
}

// ParseOutput extracts the last assistant message.
func (k *KimiProvider) ParseOutput(lines []string) core.ParseResult {
	return ParseKimiStream(lines)
}

// InstructionsTitle is the AGENTS.md heading.
func (k *KimiProvider) InstructionsTitle() string {
	return "OpenClaw Kimi Worker - Task Instructions"
}

// RemediationHint explains how to authenticate the Kimi CLI.
func (k *KimiProvider) RemediationHint() string {
	return "1. Run: kimi\n  2. Type: /login\n  3. Complete browser OAuth\n  4. Verify with: cli-worker verify"
}

// kimiEnv keeps the CLI from opening a browser during non-interactive runs.
func kimiEnv() map[string]string {
	return map[string]string{"KIMI_NO_BROWSER": "1"}
}
