package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"casctl/internal/config"
	"casctl/internal/controller"
	"casctl/internal/logging"
	"casctl/internal/repo"
)

// Instance is one factory-managed controller and its registry handle.
type Instance struct {
	ID         string
	Controller *controller.Controller
}

// SpawnOptions shape a single Spawn call. The zero value produces a
// disposable daemon in a fresh temp repository, initialized and started.
type SpawnOptions struct {
	// RepoPath pins the repository directory. Empty allocates a temp repo.
	RepoPath string
	// Keep retains a temp repository instead of marking it disposable.
	Keep bool
	// SkipInit leaves the repository uninitialized.
	SkipInit bool
	// SkipStart spawns the controller without starting the daemon.
	SkipStart bool
	// InitOptions override the configured init defaults for this instance.
	InitOptions *repo.InitOptions
	// ExtraDaemonArgs are appended after the configured daemon arguments.
	ExtraDaemonArgs []string
}

// Factory creates controllers with defaults drawn from configuration and
// tracks the live ones. Controllers stay fully independent of each other; the
// factory only remembers them so they can be listed and torn down together.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger

	mu        sync.Mutex
	instances []*Instance
}

// New builds a factory around the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "factory"),
	}
}

// Spawn creates a controller, registers it, and unless told otherwise brings
// its daemon all the way up. A spawn that fails after registration stays
// registered so Clean can still tear it down.
func (f *Factory) Spawn(ctx context.Context, opts SpawnOptions) (*Instance, error) {
	repoPath := opts.RepoPath
	disposable := f.cfg.Daemon.Disposable
	if repoPath == "" {
		repoPath = repo.TempDir()
		disposable = !opts.Keep
	}

	ctrl, err := controller.New(controller.Options{
		RepoPath:        repoPath,
		ExecPath:        f.cfg.Daemon.ExecPath,
		Flavor:          f.cfg.Daemon.Flavor,
		Disposable:      disposable,
		Env:             f.cfg.Daemon.Env,
		ExtraDaemonArgs: append(append([]string(nil), f.cfg.Daemon.ExtraArgs...), opts.ExtraDaemonArgs...),
		InitOptions: repo.InitOptions{
			EmptyRepo: f.cfg.Init.EmptyRepo,
			Profiles:  f.cfg.Init.Profiles,
		},
		StartupTimeout: time.Duration(f.cfg.Daemon.StartupTimeout) * time.Second,
		Logger:         f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	inst := &Instance{ID: uuid.NewString(), Controller: ctrl}
	f.mu.Lock()
	f.instances = append(f.instances, inst)
	f.mu.Unlock()
	f.logger.Info("controller spawned",
		logging.String("instance", inst.ID),
		logging.String(logging.FieldRepo, repoPath),
		logging.Bool("disposable", disposable))

	if !opts.SkipInit {
		if err := ctrl.Init(ctx, opts.InitOptions); err != nil {
			return inst, err
		}
	}
	if !opts.SkipStart {
		if _, err := ctrl.Start(ctx); err != nil {
			return inst, err
		}
	}
	return inst, nil
}

// List returns the registered instances in spawn order.
func (f *Factory) List() []*Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Instance(nil), f.instances...)
}

// Get looks an instance up by id.
func (f *Factory) Get(id string) (*Instance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return nil, false
}

// Stop shuts down a single instance's daemon.
func (f *Factory) Stop(ctx context.Context, id string, opts *controller.StopOptions) error {
	inst, ok := f.Get(id)
	if !ok {
		return fmt.Errorf("unknown instance %q", id)
	}
	return inst.Controller.Stop(ctx, opts)
}

// Clean stops every instance, removes the disposable repositories, and empties
// the registry. Per-instance failures are collected rather than aborting the
// sweep.
func (f *Factory) Clean(ctx context.Context) error {
	f.mu.Lock()
	instances := f.instances
	f.instances = nil
	f.mu.Unlock()

	var errs []error
	for _, inst := range instances {
		ctrl := inst.Controller
		if err := ctrl.Stop(ctx, controller.StopOptionsFromConfig(f.cfg.Stop)); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", inst.ID, err))
		}
		if !ctrl.Disposable() {
			continue
		}
		if err := ctrl.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("clean %s: %w", inst.ID, err))
		}
	}
	if len(errs) > 0 {
		f.logger.Warn("cleanup finished with failures", logging.Int("failed", len(errs)))
	}
	return errors.Join(errs...)
}
