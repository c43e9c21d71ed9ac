package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRunCapturesStdout(t *testing.T) {
	res, err := CommandRunner{}.Run(context.Background(), "/bin/sh", []string{"-c", "echo hello"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("expected stdout %q, got %q", "hello", res.Stdout)
	}
}

func TestRunPassesEnvironment(t *testing.T) {
	res, err := CommandRunner{}.Run(context.Background(), "/bin/sh", []string{"-c", "echo $CASD_PATH"}, []string{"CASD_PATH=/tmp/repo"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "/tmp/repo" {
		t.Fatalf("expected env value in output, got %q", res.Stdout)
	}
}

func TestRunFailureComposesAllChannels(t *testing.T) {
	_, err := CommandRunner{}.Run(context.Background(), "/bin/sh", []string{"-c", "echo out; echo err >&2; exit 3"}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecError, got %T", err)
	}
	message := execErr.Error()
	outIdx := strings.Index(message, "out")
	errIdx := strings.Index(message, "err")
	exitIdx := strings.Index(message, "exit status 3")
	if outIdx < 0 || errIdx < 0 || exitIdx < 0 {
		t.Fatalf("composed message missing channels: %q", message)
	}
	if !(outIdx < errIdx && errIdx < exitIdx) {
		t.Fatalf("expected stdout, stderr, failure order in %q", message)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := CommandRunner{}.Run(context.Background(), "/nonexistent/casd", nil, nil)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecError, got %T", err)
	}
}

func TestLogWriterSplitsChunksIntoLines(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	writer := NewLogWriter(slog.New(handler), "stdout")

	if _, err := writer.Write([]byte("partial")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "partial") {
		t.Fatalf("partial line logged prematurely: %q", buf.String())
	}
	if _, err := writer.Write([]byte(" line\nsecond\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "partial line") || !strings.Contains(out, "second") {
		t.Fatalf("expected both lines logged, got %q", out)
	}
	if !strings.Contains(out, "stream=stdout") {
		t.Fatalf("expected stream attribute, got %q", out)
	}
}

func TestLogWriterFlushEmitsRemainder(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	writer := NewLogWriter(slog.New(handler), "stderr")
	if _, err := writer.Write([]byte("tail without newline")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	writer.Flush()
	if !strings.Contains(buf.String(), "tail without newline") {
		t.Fatalf("expected flushed remainder, got %q", buf.String())
	}
}
