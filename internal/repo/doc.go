// Package repo holds the stateless helpers around a casd repository
// directory: initialization probes, the running-daemon address files used for
// attach, disposable path allocation, argument building for the init and
// daemon subcommands, and environment assembly with the required CASD_PATH
// binding.
package repo
