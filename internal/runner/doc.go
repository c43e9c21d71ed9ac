// Package runner executes one-shot subprocess invocations of the managed casd
// binary and translates failures into errors that preserve captured output.
//
// The Runner interface is the seam test code uses to substitute fake
// executions; CommandRunner is the production implementation. LogWriter routes
// long-running subprocess output into structured logs on a per-stream channel.
package runner
