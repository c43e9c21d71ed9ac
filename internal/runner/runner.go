package runner

import (
	"bytes"
	"context"
	"os/exec"
)

var commandContext = exec.CommandContext

// Result captures the output channels of a completed subprocess.
type Result struct {
	Stdout string
	Stderr string
}

// Runner abstracts one-shot subprocess execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, env []string) (Result, error)
}

// CommandRunner executes subprocesses through os/exec.
type CommandRunner struct{}

// Run invokes the binary and waits for completion, capturing both output
// channels. A non-zero exit or spawn failure is returned as an *ExecError that
// preserves everything the process wrote.
func (CommandRunner) Run(ctx context.Context, binary string, args []string, env []string) (Result, error) {
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return result, &ExecError{
			Binary: binary,
			Args:   append([]string(nil), args...),
			Stdout: result.Stdout,
			Stderr: result.Stderr,
			Err:    err,
		}
	}
	return result, nil
}

var _ Runner = CommandRunner{}
