package factory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"casctl/internal/logging"
	"casctl/internal/testsupport"
)

func TestSpawnFullLifecycle(t *testing.T) {
	apiAddr := testsupport.StartFakeAPI(t)
	bin := testsupport.WriteFakeDaemon(t, testsupport.FakeDaemonOptions{APIAddr: apiAddr})
	cfg := testsupport.NewConfig(t, testsupport.WithExecPath(bin))
	f := New(cfg, logging.NewNop())

	inst, err := f.Spawn(context.Background(), SpawnOptions{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	ctrl := inst.Controller
	if !ctrl.Disposable() {
		t.Fatal("temp-repo instance not disposable")
	}
	if !ctrl.Initialized() || !ctrl.Started() {
		t.Fatalf("instance state initialized=%v started=%v", ctrl.Initialized(), ctrl.Started())
	}
	if got := len(f.List()); got != 1 {
		t.Fatalf("List() len = %d", got)
	}
	if _, ok := f.Get(inst.ID); !ok {
		t.Fatalf("Get(%q) missed", inst.ID)
	}

	if err := f.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if ctrl.Started() {
		t.Fatal("instance still started after Clean")
	}
	if _, err := os.Stat(ctrl.RepoPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("disposable repo still present: %v", err)
	}
	if got := len(f.List()); got != 0 {
		t.Fatalf("List() after Clean len = %d", got)
	}
}

func TestSpawnSkipStart(t *testing.T) {
	bin := testsupport.WriteFakeDaemon(t, testsupport.FakeDaemonOptions{APIAddr: "/ip4/127.0.0.1/tcp/5001"})
	cfg := testsupport.NewConfig(t, testsupport.WithExecPath(bin))
	f := New(cfg, logging.NewNop())

	inst, err := f.Spawn(context.Background(), SpawnOptions{SkipStart: true})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	ctrl := inst.Controller
	if !ctrl.Initialized() || ctrl.Started() {
		t.Fatalf("instance state initialized=%v started=%v", ctrl.Initialized(), ctrl.Started())
	}
	if _, err := os.Stat(filepath.Join(ctrl.RepoPath(), "config")); err != nil {
		t.Fatalf("repo not initialized on disk: %v", err)
	}
	if err := f.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
}

func TestSpawnPinnedRepoIsNotDisposable(t *testing.T) {
	bin := testsupport.WriteFakeDaemon(t, testsupport.FakeDaemonOptions{APIAddr: "/ip4/127.0.0.1/tcp/5001"})
	cfg := testsupport.NewConfig(t, testsupport.WithExecPath(bin))
	f := New(cfg, logging.NewNop())

	repoPath := filepath.Join(t.TempDir(), "pinned")
	inst, err := f.Spawn(context.Background(), SpawnOptions{RepoPath: repoPath, SkipStart: true})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if inst.Controller.Disposable() {
		t.Fatal("pinned repo marked disposable")
	}

	if err := f.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repoPath, "config")); err != nil {
		t.Fatalf("Clean removed a pinned repository: %v", err)
	}
}

func TestSpawnFailureStaysRegistered(t *testing.T) {
	bin := testsupport.WriteFakeDaemon(t, testsupport.FakeDaemonOptions{
		APIAddr:    "/ip4/127.0.0.1/tcp/5001",
		FailDaemon: true,
	})
	cfg := testsupport.NewConfig(t, testsupport.WithExecPath(bin))
	f := New(cfg, logging.NewNop())

	inst, err := f.Spawn(context.Background(), SpawnOptions{})
	if err == nil {
		t.Fatal("Spawn succeeded with failing daemon")
	}
	if inst == nil {
		t.Fatal("failed spawn not returned for teardown")
	}
	if _, ok := f.Get(inst.ID); !ok {
		t.Fatal("failed spawn missing from registry")
	}
	if err := f.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
}
