// Package main is the casctld control endpoint: it hosts a controller
// factory behind a JSON-RPC Unix socket so casctl pool commands can spawn,
// list, stop, and clean daemon instances remotely. On SIGINT/SIGTERM it
// sweeps every hosted instance before exiting.
package main
