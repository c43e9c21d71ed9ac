package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"casctl/internal/config"
	"casctl/internal/controller"
	"casctl/internal/ipc"
	"casctl/internal/logging"
	"casctl/internal/repo"
)

type commandContext struct {
	configFlag *string
	socketFlag *string
	repoFlag   *string
	execFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	controllerOnce sync.Once
	ctrl           *controller.Controller
	ctrlErr        error
}

func newCommandContext(configFlag, socketFlag, repoFlag, execFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		socketFlag: socketFlag,
		repoFlag:   repoFlag,
		execFlag:   execFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// controller builds the lifecycle controller once per invocation, from the
// loaded configuration with flag overrides applied.
func (c *commandContext) controller() (*controller.Controller, error) {
	c.controllerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.ctrlErr = err
			return
		}
		repoPath := cfg.Paths.RepoDir
		if c.repoFlag != nil && strings.TrimSpace(*c.repoFlag) != "" {
			repoPath = *c.repoFlag
		}
		execPath := cfg.Daemon.ExecPath
		if c.execFlag != nil && strings.TrimSpace(*c.execFlag) != "" {
			execPath = *c.execFlag
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.ctrlErr = err
			return
		}
		c.ctrl, c.ctrlErr = controller.New(controller.Options{
			RepoPath:        repoPath,
			ExecPath:        execPath,
			Flavor:          cfg.Daemon.Flavor,
			Disposable:      cfg.Daemon.Disposable,
			Env:             cfg.Daemon.Env,
			ExtraDaemonArgs: cfg.Daemon.ExtraArgs,
			InitOptions: repo.InitOptions{
				EmptyRepo: cfg.Init.EmptyRepo,
				Profiles:  cfg.Init.Profiles,
			},
			StartupTimeout: time.Duration(cfg.Daemon.StartupTimeout) * time.Second,
			Logger:         logger,
		})
	})
	return c.ctrl, c.ctrlErr
}

func (c *commandContext) stopOptions() *controller.StopOptions {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return nil
	}
	return controller.StopOptionsFromConfig(cfg.Stop)
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return *c.socketFlag
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.SocketPath()
	}
	return filepath.Join(os.TempDir(), "casctld.sock")
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to endpoint: socket %s not found; start casctld first", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to endpoint: socket %s refused the connection; verify casctld is running", socket)
	default:
		return fmt.Errorf("connect to endpoint: %w", err)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
