package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateStop(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDaemon() error {
	switch c.Daemon.Flavor {
	case FlavorCore, FlavorClassic:
	default:
		return fmt.Errorf("daemon.flavor must be %q or %q, got %q", FlavorCore, FlavorClassic, c.Daemon.Flavor)
	}
	return nil
}

func (c *Config) validateStop() error {
	if c.Stop.ForceKill && c.Stop.ForceKillTimeout >= c.Stop.Timeout {
		return errors.New("stop.force_kill_timeout must be smaller than stop.timeout")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
