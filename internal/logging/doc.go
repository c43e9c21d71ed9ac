// Package logging assembles the structured slog loggers used across casctl.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes component-tagging helpers so controller code, the CLI,
// and the control daemon emit log lines with the same shape. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
