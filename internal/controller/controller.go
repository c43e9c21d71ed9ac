package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"casctl/internal/apiclient"
	"casctl/internal/config"
	"casctl/internal/logging"
	"casctl/internal/readiness"
	"casctl/internal/repo"
	"casctl/internal/runner"
)

var (
	// ErrNotRunning indicates no local managed daemon process exists.
	ErrNotRunning = errors.New("daemon not running")
	// ErrNoExecutable indicates no casd binary is configured or discoverable.
	ErrNoExecutable = errors.New("no casd executable configured")
)

const (
	defaultBinaryName     = "casd"
	defaultStartupTimeout = 2 * time.Minute
)

// Options describes the immutable configuration of a controller instance.
type Options struct {
	// RepoPath is the repository directory the daemon owns. Required.
	RepoPath string
	// ExecPath locates the casd binary. When empty, PATH lookup is used.
	ExecPath string
	// Flavor selects the binary variant (config.FlavorCore or FlavorClassic).
	Flavor string
	// Disposable marks the repository for automatic deletion on process exit.
	Disposable bool
	// Env holds additional environment variables for every casd invocation.
	Env map[string]string
	// ExtraDaemonArgs are appended to the daemon subcommand.
	ExtraDaemonArgs []string
	// InitOptions are the stored defaults merged into every Init call.
	InitOptions repo.InitOptions
	// ConfigOverrides are merged into the daemon configuration after init on
	// classic-flavor binaries.
	ConfigOverrides map[string]any
	// TestMode seeds the test profile into init defaults.
	TestMode bool
	// StartupTimeout bounds how long Start waits for the ready marker.
	StartupTimeout time.Duration

	Logger *slog.Logger
	Runner runner.Runner
}

// Controller drives the lifecycle of one managed or attached casd daemon.
// Callers must not invoke overlapping lifecycle methods on the same instance;
// the internal mutex only shields state shared with the exit observer.
type Controller struct {
	repoPath        string
	execPath        string
	flavor          string
	disposable      bool
	env             map[string]string
	extraDaemonArgs []string
	initOptions     repo.InitOptions
	configOverrides map[string]any
	testMode        bool
	startupTimeout  time.Duration

	logger     *slog.Logger
	procLogger *slog.Logger
	run        runner.Runner

	mu          sync.Mutex
	initialized bool
	started     bool
	clean       bool
	apiAddr     string
	gatewayAddr string
	client      *apiclient.Client
	proc        *exec.Cmd
	procPID     int
	exitCh      chan struct{}
	exitErr     error
	detector    *readiness.Detector
	lock        *flock.Flock

	cleanupMu sync.Mutex
}

// New constructs a controller. Repository contents are untouched until Init,
// Start, or Cleanup run.
func New(opts Options) (*Controller, error) {
	repoPath := strings.TrimSpace(opts.RepoPath)
	if repoPath == "" {
		return nil, errors.New("repository path required")
	}
	flavor := strings.TrimSpace(opts.Flavor)
	if flavor == "" {
		flavor = config.FlavorCore
	}
	if flavor != config.FlavorCore && flavor != config.FlavorClassic {
		return nil, fmt.Errorf("unknown daemon flavor %q", flavor)
	}
	startupTimeout := opts.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = defaultStartupTimeout
	}
	run := opts.Runner
	if run == nil {
		run = runner.CommandRunner{}
	}

	c := &Controller{
		repoPath:        repoPath,
		execPath:        strings.TrimSpace(opts.ExecPath),
		flavor:          flavor,
		disposable:      opts.Disposable,
		env:             opts.Env,
		extraDaemonArgs: append([]string(nil), opts.ExtraDaemonArgs...),
		initOptions:     opts.InitOptions,
		configOverrides: opts.ConfigOverrides,
		testMode:        opts.TestMode,
		startupTimeout:  startupTimeout,
		logger:          logging.NewComponentLogger(opts.Logger, "controller").With(logging.String(logging.FieldRepo, repoPath)),
		procLogger:      logging.NewComponentLogger(opts.Logger, "casd").With(logging.String(logging.FieldRepo, repoPath)),
		run:             run,
		clean:           !dirExists(repoPath),
	}
	return c, nil
}

// RepoPath returns the repository directory this controller owns.
func (c *Controller) RepoPath() string { return c.repoPath }

// Disposable reports whether the repository is deleted on process exit.
func (c *Controller) Disposable() bool { return c.disposable }

// Initialized reports whether the repository holds initialized state.
func (c *Controller) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Started reports whether a daemon is running and reachable.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Clean reports whether the repository directory is known absent.
func (c *Controller) Clean() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clean
}

// APIAddr returns the daemon's announced or discovered API address.
func (c *Controller) APIAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiAddr
}

// GatewayAddr returns the daemon's announced gateway address, if any.
func (c *Controller) GatewayAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gatewayAddr
}

// Client returns the API client handle, or nil before Start succeeds.
func (c *Controller) Client() *apiclient.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// PID returns the managed daemon's process identifier. Instances that never
// spawned (not started, or attached to a foreign daemon) have none.
func (c *Controller) PID() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc == nil || c.proc.Process == nil {
		return 0, fmt.Errorf("%w: no local daemon process", ErrNotRunning)
	}
	return c.proc.Process.Pid, nil
}

func (c *Controller) executable() (string, error) {
	if c.execPath != "" {
		return c.execPath, nil
	}
	path, err := exec.LookPath(defaultBinaryName)
	if err != nil {
		return "", fmt.Errorf("%w: set an executable path or install %s", ErrNoExecutable, defaultBinaryName)
	}
	return path, nil
}

func (c *Controller) environ() []string {
	return repo.Env(c.repoPath, c.env)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
