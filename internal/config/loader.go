package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// Loader reads the settings document through viper.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "CLI_WORKER",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "CLI_WORKER",
	}
}

// WithConfigFile sets an explicit settings path, overriding DefaultPath.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads the settings document.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (CLI_WORKER_*)
// 3. The settings document
// 4. Defaults
//
// A missing document yields defaults and no error. An unreadable or
// malformed document yields defaults together with a parse error, so the
// returned settings are always usable.
func (l *Loader) Load() (*Settings, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()

	path := l.configFile
	if path == "" {
		path = DefaultPath()
	}
	l.v.SetConfigFile(path)
	l.v.SetConfigType("json")

	var loadErr error
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			loadErr = core.ErrParse(core.CodeInvalidConfig,
				fmt.Sprintf("settings %s unreadable, using defaults", path)).WithCause(err)
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		loadErr = core.ErrParse(core.CodeInvalidConfig,
			fmt.Sprintf("settings %s has unexpected shape, using defaults", path)).WithCause(err)
		s = *Defaults()
	}
	s.skillProvider = l.v.GetString("skills." + SkillName + ".provider")
	return &s, loadErr
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("worktree.basePath", DefaultWorktreeBase)
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "line")
	l.v.SetDefault("log.dir", "")
	l.v.SetDefault("cleanup.olderThanHours", DefaultOlderThanHours)
	l.v.SetDefault("cliWorker.timeoutMinutes", 0)
}

// Defaults returns settings with every default applied.
func Defaults() *Settings {
	return &Settings{
		Worktree: WorktreeSettings{BasePath: DefaultWorktreeBase},
		Log:      LogSettings{Level: "info", Format: "line"},
		Cleanup:  CleanupSettings{OlderThanHours: DefaultOlderThanHours},
	}
}

// ConfigFile returns the settings path if one was read.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Load is a convenience wrapper reading $OPENCLAW_CONFIG or the default path.
func Load() (*Settings, error) {
	return NewLoader().Load()
}
