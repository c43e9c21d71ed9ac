// Package shutdown provides the timing primitives the controller's stop path
// is built from: a grace-period timer that races observed process exit and a
// bounded polling wait that fails with a named timeout instead of blocking
// forever.
package shutdown
