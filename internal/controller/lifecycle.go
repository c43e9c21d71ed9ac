package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/gofrs/flock"

	"casctl/internal/apiclient"
	"casctl/internal/config"
	"casctl/internal/daemonconfig"
	"casctl/internal/logging"
	"casctl/internal/readiness"
	"casctl/internal/repo"
	"casctl/internal/runner"
)

// Init initializes the repository on disk. Already-initialized repositories
// are left untouched. Per-call options take precedence over the controller's
// stored init options, which in turn override test-mode defaults.
func (c *Controller) Init(ctx context.Context, overrides *repo.InitOptions) error {
	if repo.Exists(c.repoPath) {
		c.mu.Lock()
		c.initialized = true
		c.clean = false
		c.mu.Unlock()
		c.logger.Debug("repository already initialized")
		return nil
	}

	bin, err := c.executable()
	if err != nil {
		return err
	}

	var defaults repo.InitOptions
	if c.testMode {
		defaults.Profiles = []string{"test"}
	}
	merged := repo.MergeInitOptions(defaults, &c.initOptions, overrides)

	if _, err := c.run.Run(ctx, bin, repo.InitArgs(merged), c.environ()); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	c.logger.Info("repository initialized")

	// Classic binaries only accept overrides through a full config
	// round-trip after init.
	if c.flavor == config.FlavorClassic && len(c.configOverrides) > 0 {
		if err := c.applyConfigOverrides(ctx, bin); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.initialized = true
	c.clean = false
	c.mu.Unlock()
	return nil
}

func (c *Controller) applyConfigOverrides(ctx context.Context, bin string) error {
	accessor, err := daemonconfig.NewAccessor(bin, c.environ(), daemonconfig.WithRunner(c.run))
	if err != nil {
		return err
	}
	current, err := accessor.Show(ctx)
	if err != nil {
		return fmt.Errorf("read daemon config: %w", err)
	}
	if err := accessor.Replace(ctx, daemonconfig.Merge(current, c.configOverrides)); err != nil {
		return fmt.Errorf("apply config overrides: %w", err)
	}
	c.logger.Debug("config overrides applied", logging.Int("keys", len(c.configOverrides)))
	return nil
}

// Start brings up the daemon and returns a client bound to its API. When the
// repository already advertises a live API address, Start attaches to that
// daemon instead of spawning a new process. Start on an already-started
// controller returns the existing client.
func (c *Controller) Start(ctx context.Context) (*apiclient.Client, error) {
	c.mu.Lock()
	if c.started {
		client := c.client
		c.mu.Unlock()
		return client, nil
	}
	c.mu.Unlock()

	if addr, ok := repo.APIAddr(c.repoPath); ok {
		return c.attach(ctx, addr)
	}

	bin, err := c.executable()
	if err != nil {
		return nil, err
	}

	var lock *flock.Flock
	if dirExists(c.repoPath) {
		lock = flock.New(repo.LockPath(c.repoPath))
		held, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire controller lock: %w", err)
		}
		if !held {
			return nil, fmt.Errorf("repository %s is already managed by another controller", c.repoPath)
		}
	}

	detector := readiness.NewDetector()
	stdoutBuf := &syncBuffer{}
	stderrBuf := &syncBuffer{}
	stdoutTap := runner.NewLogWriter(c.procLogger, "stdout")
	stderrTap := runner.NewLogWriter(c.procLogger, "stderr")

	cmd := exec.Command(bin, repo.DaemonArgs(c.extraDaemonArgs...)...)
	cmd.Env = c.environ()
	cmd.Stdout = io.MultiWriter(stdoutBuf, detector, stdoutTap)
	cmd.Stderr = io.MultiWriter(stderrBuf, stderrTap)

	if err := cmd.Start(); err != nil {
		detector.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("start daemon: %w", err)
	}

	exitCh := make(chan struct{})
	c.mu.Lock()
	c.proc = cmd
	c.procPID = cmd.Process.Pid
	c.detector = detector
	c.lock = lock
	c.exitCh = exitCh
	c.exitErr = nil
	c.clean = false
	c.mu.Unlock()
	c.logger.Info("daemon process started", logging.Int(logging.FieldPID, cmd.Process.Pid))

	go c.observeExit(cmd, detector, stdoutTap, stderrTap)

	return c.awaitReady(ctx, cmd, detector, exitCh, stdoutBuf, stderrBuf)
}

func (c *Controller) awaitReady(ctx context.Context, cmd *exec.Cmd, detector *readiness.Detector, exitCh chan struct{}, stdoutBuf, stderrBuf *syncBuffer) (*apiclient.Client, error) {
	startupCtx, cancel := context.WithTimeout(ctx, c.startupTimeout)
	defer cancel()

	var client *apiclient.Client
	var gatewayAddr string
	for {
		select {
		case ev := <-detector.Events():
			switch ev.Kind {
			case readiness.EventAPIAddress:
				next, err := apiclient.New(ev.Address)
				if err != nil {
					return nil, c.abortStart(cmd, detector, exitCh, stdoutBuf, stderrBuf,
						fmt.Errorf("parse announced API address %q: %w", ev.Address, err))
				}
				if gatewayAddr != "" {
					_ = next.SetGateway(gatewayAddr)
				}
				client = next
				c.mu.Lock()
				c.apiAddr = ev.Address
				c.mu.Unlock()
			case readiness.EventGatewayAddress:
				gatewayAddr = ev.Address
				if client != nil {
					_ = client.SetGateway(ev.Address)
				}
				c.mu.Lock()
				c.gatewayAddr = ev.Address
				c.mu.Unlock()
			case readiness.EventReady:
				select {
				case <-exitCh:
					return nil, c.startFailure(stdoutBuf, stderrBuf, nil)
				default:
				}
				if client == nil {
					return nil, c.abortStart(cmd, detector, exitCh, stdoutBuf, stderrBuf,
						errors.New("daemon reported ready without announcing an API address"))
				}
				c.mu.Lock()
				c.started = true
				c.client = client
				addr := c.apiAddr
				c.mu.Unlock()
				c.logger.Info("daemon ready", logging.String(logging.FieldAddress, addr))
				if _, err := client.FetchIdentity(ctx); err != nil {
					return nil, fmt.Errorf("fetch node identity: %w", err)
				}
				return client, nil
			}
		case <-exitCh:
			return nil, c.startFailure(stdoutBuf, stderrBuf, nil)
		case <-startupCtx.Done():
			return nil, c.abortStart(cmd, detector, exitCh, stdoutBuf, stderrBuf, startupCtx.Err())
		}
	}
}

// abortStart kills a spawned process that failed before readiness and waits
// for the exit observer so buffers and locks are settled. The detector is
// closed first: a blocked output scan must not keep the process copiers (and
// therefore Wait) from finishing.
func (c *Controller) abortStart(cmd *exec.Cmd, detector *readiness.Detector, exitCh chan struct{}, stdoutBuf, stderrBuf *syncBuffer, cause error) error {
	_ = cmd.Process.Kill()
	detector.Close()
	<-exitCh
	return c.startFailure(stdoutBuf, stderrBuf, cause)
}

// startFailure composes the start error from the captured output channels and
// the process exit status, so callers see everything the daemon reported.
func (c *Controller) startFailure(stdoutBuf, stderrBuf *syncBuffer, cause error) error {
	c.mu.Lock()
	exitErr := c.exitErr
	c.mu.Unlock()
	if cause == nil {
		cause = exitErr
	}
	if cause == nil {
		cause = errors.New("daemon exited before announcing readiness")
	}
	return &runner.ExecError{
		Binary: defaultBinaryName,
		Args:   []string{"daemon"},
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
		Err:    fmt.Errorf("daemon failed to start: %w", cause),
	}
}

// attach binds to an externally started daemon advertised by the repo's api
// file. No process is managed; Stop will ask the daemon to shut itself down.
func (c *Controller) attach(ctx context.Context, addr string) (*apiclient.Client, error) {
	client, err := apiclient.New(addr)
	if err != nil {
		return nil, fmt.Errorf("attach to running daemon: %w", err)
	}
	gatewayAddr := ""
	if gw, ok := repo.GatewayAddr(c.repoPath); ok {
		gatewayAddr = gw
		_ = client.SetGateway(gw)
	}

	c.mu.Lock()
	c.client = client
	c.apiAddr = addr
	c.gatewayAddr = gatewayAddr
	c.started = true
	c.initialized = true
	c.clean = false
	c.mu.Unlock()
	c.logger.Info("attached to running daemon", logging.String(logging.FieldAddress, addr))

	if _, err := client.FetchIdentity(ctx); err != nil {
		return nil, fmt.Errorf("fetch node identity: %w", err)
	}
	return client, nil
}

// observeExit runs once per spawned process. It reaps the process, flips the
// controller back to stopped, releases the lock, and schedules disposable
// cleanup before signalling anyone waiting on the exit channel.
func (c *Controller) observeExit(cmd *exec.Cmd, detector *readiness.Detector, taps ...*runner.LogWriter) {
	err := cmd.Wait()
	for _, tap := range taps {
		tap.Flush()
	}
	detector.Close()

	c.mu.Lock()
	c.exitErr = err
	c.started = false
	c.proc = nil
	c.detector = nil
	lock := c.lock
	c.lock = nil
	exitCh := c.exitCh
	pid := c.procPID
	c.mu.Unlock()

	if lock != nil {
		_ = lock.Unlock()
	}
	if err != nil {
		c.logger.Debug("daemon process exited", logging.Int(logging.FieldPID, pid), logging.Error(err))
	} else {
		c.logger.Info("daemon process exited", logging.Int(logging.FieldPID, pid))
	}

	if c.disposable {
		go func() {
			if cleanErr := c.Cleanup(); cleanErr != nil {
				c.logger.Warn("disposable cleanup failed", logging.Error(cleanErr))
			}
		}()
	}
	close(exitCh)
}

// syncBuffer is a mutex-guarded bytes.Buffer. The process copier writes while
// Start may read it to compose a failure message.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
