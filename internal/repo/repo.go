package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// EnvRepoPath is the environment variable binding the repository directory for
// every casd invocation.
const EnvRepoPath = "CASD_PATH"

const (
	configFileName  = "config"
	apiFileName     = "api"
	gatewayFileName = "gateway"
	lockFileName    = "controller.lock"
)

// Exists reports whether path holds an initialized repository.
func Exists(path string) bool {
	info, err := os.Stat(filepath.Join(path, configFileName))
	return err == nil && !info.IsDir()
}

// APIAddr returns the listening address a running daemon recorded in the
// repository, if any. This is the cheap attach probe: a daemon that owns the
// repository keeps its API multiaddr in the api file while it is up.
func APIAddr(path string) (string, bool) {
	return readAddrFile(filepath.Join(path, apiFileName))
}

// GatewayAddr returns the recorded gateway address, if any.
func GatewayAddr(path string) (string, bool) {
	return readAddrFile(filepath.Join(path, gatewayFileName))
}

func readAddrFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	addr := strings.TrimSpace(string(data))
	return addr, addr != ""
}

// LockPath returns the controller lock file location inside the repository.
func LockPath(path string) string {
	return filepath.Join(path, lockFileName)
}

// TempDir allocates a unique repository path for a disposable instance. The
// directory itself is not created; casd init does that.
func TempDir() string {
	return filepath.Join(os.TempDir(), "casd-"+uuid.NewString())
}

// Env merges the process environment with the required repository binding and
// caller overrides, overrides winning. Keys are emitted in sorted order so
// argument assembly stays deterministic for tests.
func Env(repoPath string, overrides map[string]string) []string {
	merged := map[string]string{}
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			merged[key] = value
		}
	}
	merged[EnvRepoPath] = repoPath
	for key, value := range overrides {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, merged[key]))
	}
	return env
}
