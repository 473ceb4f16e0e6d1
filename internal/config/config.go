// Package config loads the OpenClaw settings document.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Settings holds the parts of the settings document cli-worker reads.
// Unknown keys in the document are ignored.
type Settings struct {
	Worktree  WorktreeSettings  `mapstructure:"worktree"`
	CLIWorker CLIWorkerSettings `mapstructure:"cliWorker"`
	Log       LogSettings       `mapstructure:"log"`
	Cleanup   CleanupSettings   `mapstructure:"cleanup"`

	// skills["cli-worker"].provider, read by key so that unrelated skill
	// entries of any shape never break loading.
	skillProvider string
}

// WorktreeSettings configures where task worktrees live.
type WorktreeSettings struct {
	BasePath string `mapstructure:"basePath"`
}

// CLIWorkerSettings configures the worker itself.
type CLIWorkerSettings struct {
	Provider       string `mapstructure:"provider"`
	TimeoutMinutes int    `mapstructure:"timeoutMinutes"`
}

// LogSettings configures the durable log file.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// CleanupSettings configures age-based worktree cleanup.
type CleanupSettings struct {
	OlderThanHours int `mapstructure:"olderThanHours"`
}

const (
	// DefaultWorktreeBase is used when worktree.basePath is unset.
	DefaultWorktreeBase = "~/.openclaw/worktrees/kimi"

	// DefaultOlderThanHours is the default cleanup age.
	DefaultOlderThanHours = 24

	// SkillName is the key of this tool under "skills".
	SkillName = "cli-worker"
)

// WorktreeBasePath returns the configured base path with "~/" expanded.
func (s *Settings) WorktreeBasePath() string {
	base := DefaultWorktreeBase
	if s != nil && strings.TrimSpace(s.Worktree.BasePath) != "" {
		base = s.Worktree.BasePath
	}
	return ExpandHome(base)
}

// SkillProvider returns skills["cli-worker"].provider, or "".
func (s *Settings) SkillProvider() string {
	if s == nil {
		return ""
	}
	return s.skillProvider
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// DefaultPath returns $OPENCLAW_CONFIG or ~/.openclaw/openclaw.json.
func DefaultPath() string {
	if p := os.Getenv("OPENCLAW_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openclaw", "openclaw.json")
	}
	return filepath.Join(home, ".openclaw", "openclaw.json")
}
