package testsupport

import (
	"path/filepath"
	"testing"

	"casctl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RepoDir = filepath.Join(base, "repo")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "casctld.sock")
	cfgVal.Daemon.StartupTimeout = 10
	cfgVal.Stop.Timeout = 5
	cfgVal.Stop.ForceKillTimeout = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithExecPath points the config at a casd binary, usually a fake from
// WriteFakeDaemon.
func WithExecPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.ExecPath = path
	}
}

// WithFlavor overrides the daemon flavor on the test config.
func WithFlavor(flavor string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.Flavor = flavor
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
