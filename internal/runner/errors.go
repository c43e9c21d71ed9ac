package runner

import "strings"

// ExecError describes a failed subprocess invocation. Its message concatenates
// the captured standard output, captured standard error, and the original
// failure description, in that order, so no diagnostic channel is lost when
// the error surfaces to a caller.
type ExecError struct {
	Binary string
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	parts := make([]string, 0, 3)
	if out := strings.TrimSpace(e.Stdout); out != "" {
		parts = append(parts, out)
	}
	if errOut := strings.TrimSpace(e.Stderr); errOut != "" {
		parts = append(parts, errOut)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "subprocess failed"
	}
	return strings.Join(parts, "\n")
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
