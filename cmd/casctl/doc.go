// Package main hosts the casctl CLI entrypoint and command graph.
//
// The Cobra-based command tree drives a daemon lifecycle controller built
// from configuration: repository initialization, daemon start with readiness
// detection or attachment to a running daemon, graceful shutdown, and status
// reporting. Pool subcommands talk to a casctld endpoint over its Unix
// socket instead of spawning locally.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
