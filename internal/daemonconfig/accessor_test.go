package daemonconfig

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"casctl/internal/runner"
)

type recordedCall struct {
	binary string
	args   []string
}

type fakeRunner struct {
	calls  []recordedCall
	stdout string
	err    error

	onRun func(args []string) (runner.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, binary string, args []string, _ []string) (runner.Result, error) {
	f.calls = append(f.calls, recordedCall{binary: binary, args: append([]string(nil), args...)})
	if f.onRun != nil {
		return f.onRun(args)
	}
	return runner.Result{Stdout: f.stdout}, f.err
}

func newTestAccessor(t *testing.T, fake *fakeRunner) *Accessor {
	t.Helper()
	accessor, err := NewAccessor("casd", []string{"CASD_PATH=/tmp/repo"}, WithRunner(fake))
	if err != nil {
		t.Fatalf("NewAccessor: %v", err)
	}
	return accessor
}

func TestNewAccessorRequiresBinary(t *testing.T) {
	if _, err := NewAccessor("  ", nil); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestShowParsesConfigDocument(t *testing.T) {
	fake := &fakeRunner{stdout: `{"Addresses":{"API":"/ip4/127.0.0.1/tcp/5001"},"Bootstrap":[]}` + "\n"}
	accessor := newTestAccessor(t, fake)

	cfg, err := accessor.Show(context.Background())
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	addresses, ok := cfg["Addresses"].(map[string]any)
	if !ok || addresses["API"] != "/ip4/127.0.0.1/tcp/5001" {
		t.Fatalf("unexpected parsed config %v", cfg)
	}
	if got := fake.calls[0].args; !reflect.DeepEqual(got, []string{"config", "show"}) {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestShowRejectsMalformedOutput(t *testing.T) {
	accessor := newTestAccessor(t, &fakeRunner{stdout: "not json"})
	if _, err := accessor.Show(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetReturnsTrimmedScalar(t *testing.T) {
	fake := &fakeRunner{stdout: "  /data/blocks \n"}
	accessor := newTestAccessor(t, fake)

	value, err := accessor.Get(context.Background(), "Datastore.Path")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "/data/blocks" {
		t.Fatalf("expected trimmed value, got %q", value)
	}
	if got := fake.calls[0].args; !reflect.DeepEqual(got, []string{"config", "Datastore.Path"}) {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestReplaceWritesAndRemovesTempFile(t *testing.T) {
	var tempPath string
	fake := &fakeRunner{}
	fake.onRun = func(args []string) (runner.Result, error) {
		if len(args) != 3 || args[0] != "config" || args[1] != "replace" {
			t.Fatalf("unexpected replace args %v", args)
		}
		tempPath = args[2]
		data, err := os.ReadFile(tempPath)
		if err != nil {
			t.Fatalf("temp file missing during replace: %v", err)
		}
		if !strings.Contains(string(data), `"API"`) {
			t.Fatalf("temp file missing serialized config: %s", data)
		}
		return runner.Result{}, nil
	}
	accessor := newTestAccessor(t, fake)

	err := accessor.Replace(context.Background(), map[string]any{"Addresses": map[string]any{"API": "/ip4/0.0.0.0/tcp/5001"}})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if tempPath == "" {
		t.Fatal("replace subcommand never invoked")
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err %v", err)
	}
}

func TestReplaceRemovesTempFileOnFailure(t *testing.T) {
	var tempPath string
	fake := &fakeRunner{}
	fake.onRun = func(args []string) (runner.Result, error) {
		tempPath = args[2]
		return runner.Result{}, errors.New("daemon rejected config")
	}
	accessor := newTestAccessor(t, fake)

	if err := accessor.Replace(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected replace failure")
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed after failure, stat err %v", err)
	}
}

func TestMergeDeepMergesNestedMaps(t *testing.T) {
	base := map[string]any{
		"Addresses": map[string]any{"API": "/ip4/127.0.0.1/tcp/5001", "Gateway": "/ip4/127.0.0.1/tcp/8080"},
		"Bootstrap": []any{"node1"},
	}
	overrides := map[string]any{
		"Addresses": map[string]any{"API": "/ip4/0.0.0.0/tcp/5001"},
		"Bootstrap": []any{},
	}

	merged := Merge(base, overrides)

	addresses := merged["Addresses"].(map[string]any)
	if addresses["API"] != "/ip4/0.0.0.0/tcp/5001" {
		t.Fatalf("expected API override, got %v", addresses["API"])
	}
	if addresses["Gateway"] != "/ip4/127.0.0.1/tcp/8080" {
		t.Fatalf("expected gateway preserved, got %v", addresses["Gateway"])
	}
	if got := merged["Bootstrap"].([]any); len(got) != 0 {
		t.Fatalf("expected bootstrap replaced, got %v", got)
	}
	if base["Addresses"].(map[string]any)["API"] != "/ip4/127.0.0.1/tcp/5001" {
		t.Fatal("base map mutated by merge")
	}
}
