// Package daemonconfig round-trips the managed daemon's persisted
// configuration through casd config subprocess calls. Classic-flavor binaries
// ship a non-empty default configuration, so initialization fetches the
// current document, merges caller overrides on top, and writes the result
// back through a temporary file.
package daemonconfig
