package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"casctl/internal/config"
	"casctl/internal/logging"
	"casctl/internal/shutdown"
)

const (
	defaultStopTimeout      = 60 * time.Second
	defaultForceKillTimeout = 5 * time.Second
)

// StopOptions tune how Stop tears the daemon down. The zero value asks for a
// graceful shutdown with force-kill escalation after defaultForceKillTimeout,
// bounded overall by defaultStopTimeout.
type StopOptions struct {
	// Timeout bounds each wait Stop performs (process exit, then cleanup
	// for disposable instances).
	Timeout time.Duration
	// DisableForceKill leaves the daemon alone after SIGTERM instead of
	// escalating to SIGKILL when the grace period elapses.
	DisableForceKill bool
	// ForceKillTimeout is the grace period before SIGKILL.
	ForceKillTimeout time.Duration
}

// StopOptionsFromConfig maps the stop section of the configuration file onto
// StopOptions.
func StopOptionsFromConfig(s config.Stop) *StopOptions {
	return &StopOptions{
		Timeout:          time.Duration(s.Timeout) * time.Second,
		DisableForceKill: !s.ForceKill,
		ForceKillTimeout: time.Duration(s.ForceKillTimeout) * time.Second,
	}
}

func (o *StopOptions) withDefaults() StopOptions {
	out := StopOptions{}
	if o != nil {
		out = *o
	}
	if out.Timeout <= 0 {
		out.Timeout = defaultStopTimeout
	}
	if out.ForceKillTimeout <= 0 {
		out.ForceKillTimeout = defaultForceKillTimeout
	}
	return out
}

// Stop shuts the daemon down. Managed daemons receive SIGTERM (disposable
// ones SIGKILL outright, their repository is deleted anyway) and Stop waits
// for the exit observer. Attached daemons are asked to shut down over the
// API. Stopping an already-stopped controller is a no-op.
func (c *Controller) Stop(ctx context.Context, opts *StopOptions) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	proc := c.proc
	client := c.client
	exitCh := c.exitCh
	c.mu.Unlock()

	options := opts.withDefaults()

	if proc == nil {
		if client == nil {
			return errors.New("stop: no process and no API client")
		}
		if err := client.Shutdown(ctx); err != nil {
			return fmt.Errorf("stop attached daemon: %w", err)
		}
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		c.logger.Info("attached daemon stopped")
		return nil
	}

	var graceTimer *shutdown.Timer
	if c.disposable {
		if err := proc.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill daemon: %w", err)
		}
	} else {
		if err := proc.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("signal daemon: %w", err)
		}
		if !options.DisableForceKill {
			graceTimer = shutdown.Arm(options.ForceKillTimeout, func() {
				c.logger.Warn("graceful shutdown timed out, sending SIGKILL",
					logging.Duration("grace", options.ForceKillTimeout))
				_ = proc.Process.Kill()
			})
			defer graceTimer.Disarm()
		}
	}

	if err := c.awaitExit(ctx, exitCh, options.Timeout); err != nil {
		return err
	}
	if graceTimer != nil {
		graceTimer.Disarm()
	}
	c.logger.Info("daemon stopped")

	// Disposable cleanup runs asynchronously off the exit observer.
	if c.disposable {
		if err := shutdown.WaitUntil(ctx, "repository cleanup", c.isCleanLocked, options.Timeout, shutdown.DefaultPollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) awaitExit(ctx context.Context, exitCh chan struct{}, timeout time.Duration) error {
	if exitCh == nil {
		return shutdown.WaitUntil(ctx, "process exit", func() bool { return !c.Started() }, timeout, shutdown.DefaultPollInterval)
	}
	select {
	case <-exitCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%w: process exit after %s", shutdown.ErrWaitTimeout, timeout)
	}
}

func (c *Controller) isCleanLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clean
}

// Cleanup deletes the repository directory. Repeated calls remove it at most
// once. Cleanup never touches a repository the controller considers clean.
func (c *Controller) Cleanup() error {
	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	c.mu.Lock()
	if c.clean {
		c.mu.Unlock()
		return nil
	}
	lock := c.lock
	c.lock = nil
	c.mu.Unlock()

	if lock != nil {
		_ = lock.Unlock()
	}
	if err := os.RemoveAll(c.repoPath); err != nil {
		return fmt.Errorf("remove repository: %w", err)
	}

	c.mu.Lock()
	c.clean = true
	c.initialized = false
	c.mu.Unlock()
	c.logger.Info("repository removed")
	return nil
}

// Version reports the daemon binary's version string.
func (c *Controller) Version(ctx context.Context) (string, error) {
	bin, err := c.executable()
	if err != nil {
		return "", err
	}
	res, err := c.run.Run(ctx, bin, []string{"version"}, c.environ())
	if err != nil {
		return "", fmt.Errorf("read daemon version: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}
