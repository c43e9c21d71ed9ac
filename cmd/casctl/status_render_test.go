package main

import (
	"strings"
	"testing"

	"casctl/internal/ipc"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Daemon", statusOK, "running", false)
	if !strings.HasPrefix(plain, "Daemon") || !strings.Contains(plain, "OK") || !strings.HasSuffix(plain, "running") {
		t.Fatalf("unexpected line: %q", plain)
	}
	if strings.Contains(plain, ansiGreen) {
		t.Fatalf("colorless line contains ANSI codes: %q", plain)
	}

	bare := renderStatusLine("Initialized", statusOK, "", false)
	if strings.HasSuffix(bare, " ") {
		t.Fatalf("line with empty message keeps tag padding: %q", bare)
	}

	colored := renderStatusLine("Daemon", statusError, "dead", true)
	if !strings.Contains(colored, ansiRed) || !strings.Contains(colored, ansiReset) {
		t.Fatalf("colored line missing codes: %q", colored)
	}
	if !strings.Contains(colored, "ERROR") {
		t.Fatalf("unexpected colored line: %q", colored)
	}
	// The message itself stays uncolored.
	if !strings.HasSuffix(colored, "dead") {
		t.Fatalf("message not last on colored line: %q", colored)
	}
}

func TestRenderDetails(t *testing.T) {
	out := renderDetails([][2]string{{"API", "/ip4/127.0.0.1/tcp/5001"}, {"Peer", "QmNode"}})
	for _, want := range []string{"API", "/ip4/127.0.0.1/tcp/5001", "Peer", "QmNode"} {
		if !strings.Contains(out, want) {
			t.Fatalf("details output missing %q:\n%s", want, out)
		}
	}
	if renderDetails(nil) != "" {
		t.Fatal("empty details rendered output")
	}
}

func TestRenderInstanceList(t *testing.T) {
	out := renderInstanceList([]ipc.Instance{
		{ID: "one", RepoPath: "/tmp/a", Started: true, PID: 42, APIAddr: "/ip4/127.0.0.1/tcp/5001"},
		{ID: "two", RepoPath: "/tmp/b"},
	})
	for _, want := range []string{"one", "two", "42", "/tmp/a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}
	// Stopped instance rows carry placeholders instead of blanks.
	if !strings.Contains(out, "-") {
		t.Fatalf("list output missing placeholder:\n%s", out)
	}
}
