package config

const (
	defaultRepoDir          = "~/.casd"
	defaultLogDir           = "~/.local/share/casctl/logs"
	defaultFlavor           = FlavorCore
	defaultStartupTimeout   = 120
	defaultStopTimeout      = 60
	defaultForceKillTimeout = 5
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Known casd binary flavors. Classic builds ship a non-empty default
// configuration that init must merge caller overrides into.
const (
	FlavorCore    = "core"
	FlavorClassic = "classic"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RepoDir: defaultRepoDir,
			LogDir:  defaultLogDir,
		},
		Daemon: Daemon{
			Flavor:         defaultFlavor,
			StartupTimeout: defaultStartupTimeout,
		},
		Stop: Stop{
			Timeout:          defaultStopTimeout,
			ForceKill:        true,
			ForceKillTimeout: defaultForceKillTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
