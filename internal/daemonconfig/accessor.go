package daemonconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"casctl/internal/runner"
)

// Accessor reads and replaces the persisted daemon configuration through
// one-shot casd subprocess calls.
type Accessor struct {
	binary string
	env    []string
	run    runner.Runner
}

// Option configures the accessor.
type Option func(*Accessor)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(run runner.Runner) Option {
	return func(a *Accessor) {
		if run != nil {
			a.run = run
		}
	}
}

// NewAccessor constructs an accessor for the given binary and environment.
func NewAccessor(binary string, env []string, opts ...Option) (*Accessor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("casd binary required")
	}
	accessor := &Accessor{
		binary: binary,
		env:    append([]string(nil), env...),
		run:    runner.CommandRunner{},
	}
	for _, opt := range opts {
		opt(accessor)
	}
	return accessor, nil
}

// Show fetches the full configuration document.
func (a *Accessor) Show(ctx context.Context) (map[string]any, error) {
	res, err := a.run.Run(ctx, a.binary, []string{"config", "show"}, a.env)
	if err != nil {
		return nil, fmt.Errorf("config show: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &cfg); err != nil {
		return nil, fmt.Errorf("parse config show output: %w", err)
	}
	return cfg, nil
}

// Get fetches a single configuration key as its trimmed textual value.
func (a *Accessor) Get(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("config key required")
	}
	res, err := a.run.Run(ctx, a.binary, []string{"config", key}, a.env)
	if err != nil {
		return "", fmt.Errorf("config %s: %w", key, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Replace writes cfg to a uniquely named temporary file and points the casd
// config replace subcommand at it. The file is removed regardless of outcome.
func (a *Accessor) Replace(ctx context.Context, cfg map[string]any) error {
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}

	path := filepath.Join(os.TempDir(), "casd-config-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	defer os.Remove(path)

	if _, err := a.run.Run(ctx, a.binary, []string{"config", "replace", path}, a.env); err != nil {
		return fmt.Errorf("config replace: %w", err)
	}
	return nil
}

// Merge deep-merges overrides into base and returns the result. Nested maps
// merge recursively; any other value from overrides replaces the base value.
// Neither input is mutated.
func Merge(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		overrideMap, overrideOK := value.(map[string]any)
		baseMap, baseOK := merged[key].(map[string]any)
		if overrideOK && baseOK {
			merged[key] = Merge(baseMap, overrideMap)
			continue
		}
		merged[key] = value
	}
	return merged
}
