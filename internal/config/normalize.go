package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeStop()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RepoDir) == "" {
		c.Paths.RepoDir = defaultRepoDir
	}
	if c.Paths.RepoDir, err = expandPath(c.Paths.RepoDir); err != nil {
		return fmt.Errorf("paths.repo_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	if c.Daemon.ExecPath, err = expandPath(c.Daemon.ExecPath); err != nil {
		return fmt.Errorf("daemon.exec_path: %w", err)
	}
	c.Daemon.Flavor = strings.ToLower(strings.TrimSpace(c.Daemon.Flavor))
	if c.Daemon.Flavor == "" {
		c.Daemon.Flavor = defaultFlavor
	}
	if c.Daemon.StartupTimeout <= 0 {
		c.Daemon.StartupTimeout = defaultStartupTimeout
	}
	return nil
}

func (c *Config) normalizeStop() {
	if c.Stop.Timeout <= 0 {
		c.Stop.Timeout = defaultStopTimeout
	}
	if c.Stop.ForceKillTimeout <= 0 {
		c.Stop.ForceKillTimeout = defaultForceKillTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
