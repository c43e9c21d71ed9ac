package repo

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("empty directory must not count as initialized")
	}
	if err := os.WriteFile(filepath.Join(dir, "config"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("directory with config file must count as initialized")
	}
}

func TestAPIAddrProbe(t *testing.T) {
	dir := t.TempDir()
	if _, ok := APIAddr(dir); ok {
		t.Fatal("expected no address without api file")
	}
	if err := os.WriteFile(filepath.Join(dir, "api"), []byte("/ip4/127.0.0.1/tcp/5001\n"), 0o644); err != nil {
		t.Fatalf("write api file: %v", err)
	}
	addr, ok := APIAddr(dir)
	if !ok || addr != "/ip4/127.0.0.1/tcp/5001" {
		t.Fatalf("unexpected probe result %q %v", addr, ok)
	}
}

func TestAPIAddrIgnoresBlankFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "api"), []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write api file: %v", err)
	}
	if _, ok := APIAddr(dir); ok {
		t.Fatal("blank api file must not report an address")
	}
}

func TestTempDirIsUniquePerCall(t *testing.T) {
	first := TempDir()
	second := TempDir()
	if first == second {
		t.Fatalf("expected unique paths, got %q twice", first)
	}
	if !strings.HasPrefix(filepath.Base(first), "casd-") {
		t.Fatalf("unexpected temp dir name %q", first)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("temp dir must not be created eagerly: %v", err)
	}
}

func TestEnvBindsRepoPathAndOverrides(t *testing.T) {
	t.Setenv("CASD_EXISTING", "original")
	env := Env("/tmp/repo", map[string]string{"CASD_EXISTING": "override", "CASD_EXTRA": "1"})
	if !slices.Contains(env, "CASD_PATH=/tmp/repo") {
		t.Fatalf("expected repo binding in %v", env)
	}
	if !slices.Contains(env, "CASD_EXISTING=override") {
		t.Fatalf("expected override to win in %v", env)
	}
	if !slices.Contains(env, "CASD_EXTRA=1") {
		t.Fatalf("expected extra variable in %v", env)
	}
	if !slices.IsSorted(env) {
		t.Fatal("expected deterministic sorted environment")
	}
}

func TestMergeInitOptions(t *testing.T) {
	base := InitOptions{Profiles: []string{"test"}}
	merged := MergeInitOptions(base, nil, &InitOptions{EmptyRepo: true})
	if !merged.EmptyRepo {
		t.Fatal("expected EmptyRepo from override layer")
	}
	if len(merged.Profiles) != 1 || merged.Profiles[0] != "test" {
		t.Fatalf("expected base profiles preserved, got %v", merged.Profiles)
	}

	replaced := MergeInitOptions(base, &InitOptions{Profiles: []string{"server", "badger"}})
	if len(replaced.Profiles) != 2 || replaced.Profiles[0] != "server" {
		t.Fatalf("expected profile replacement, got %v", replaced.Profiles)
	}
}

func TestInitArgs(t *testing.T) {
	args := InitArgs(InitOptions{EmptyRepo: true, Profiles: []string{"test", "server"}})
	want := []string{"init", "--empty-repo", "--profile", "test,server"}
	if !slices.Equal(args, want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	if got := InitArgs(InitOptions{}); !slices.Equal(got, []string{"init"}) {
		t.Fatalf("expected bare init, got %v", got)
	}
}

func TestDaemonArgs(t *testing.T) {
	if got := DaemonArgs("--migrate"); !slices.Equal(got, []string{"daemon", "--migrate"}) {
		t.Fatalf("unexpected daemon args %v", got)
	}
}
