// Package config loads, normalizes, and validates casctl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and control daemon need: where the managed repository lives, which casd
// binary to launch, and how long shutdown is allowed to take before
// escalation.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
