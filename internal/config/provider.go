package config

import (
	"os"
	"strings"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// ProviderEnvVar selects a provider when no flag is given.
const ProviderEnvVar = "OPENCLAW_CLI_PROVIDER"

// ProviderSource records which setting selected the provider.
type ProviderSource string

const (
	SourceFlag    ProviderSource = "flag"
	SourceEnv     ProviderSource = "env"
	SourceConfig  ProviderSource = "cliWorker.provider"
	SourceSkill   ProviderSource = "skills.cli-worker.provider"
	SourceDefault ProviderSource = "default"
)

// ResolveProviderID picks the provider from, in order: the explicit flag,
// $OPENCLAW_CLI_PROVIDER, cliWorker.provider, skills["cli-worker"].provider
// and finally the default. Unknown names at any level are skipped.
func ResolveProviderID(flag string, s *Settings) (core.ProviderID, ProviderSource) {
	return resolveProviderID(flag, os.Getenv(ProviderEnvVar), s)
}

type providerCandidate struct {
	value  string
	source ProviderSource
}

func resolveProviderID(flag, env string, s *Settings) (core.ProviderID, ProviderSource) {
	candidates := []providerCandidate{
		{flag, SourceFlag},
		{env, SourceEnv},
	}
	if s != nil {
		candidates = append(candidates,
			providerCandidate{s.CLIWorker.Provider, SourceConfig},
			providerCandidate{s.SkillProvider(), SourceSkill},
		)
	}

	for _, c := range candidates {
		if id, ok := core.ParseProviderID(strings.TrimSpace(c.value)); ok {
			return id, c.source
		}
	}
	return core.DefaultProvider, SourceDefault
}
